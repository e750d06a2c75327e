package control

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

func newTestController(t *testing.T) *NonlinearController {
	t.Helper()
	c, err := NewNonlinearController(DefaultGains(), DefaultVehicleParameters())
	if err != nil {
		t.Fatalf("NewNonlinearController: %v", err)
	}
	return c
}

func TestNewNonlinearController_RejectsBadVehicle(t *testing.T) {
	_, err := NewNonlinearController(DefaultGains(), VehicleParameters{MassKg: -1})
	if err == nil {
		t.Fatalf("expected error for negative mass")
	}
}

func TestLateralPositionControl_ZeroError(t *testing.T) {
	c := newTestController(t)
	p := r2.Point{X: 3, Y: -2}
	v := r2.Point{X: 0.5, Y: 0.1}
	got := c.LateralPositionControl(p, v, p, v, r2.Point{})
	if got != (r2.Point{}) {
		t.Fatalf("accel=%v want zero", got)
	}
}

func TestLateralPositionControl_GainLinearity(t *testing.T) {
	gains := DefaultGains()
	gains.PosNorthKp = 2.0
	gains.PosEastKp = 3.0
	gains.PosNorthKd = 0
	gains.PosEastKd = 0
	c, err := NewNonlinearController(gains, DefaultVehicleParameters())
	if err != nil {
		t.Fatalf("NewNonlinearController: %v", err)
	}

	got := c.LateralPositionControl(r2.Point{X: 1, Y: 1}, r2.Point{}, r2.Point{}, r2.Point{}, r2.Point{})
	if got.X != 2.0 || got.Y != 3.0 {
		t.Fatalf("accel=%v want (2,3)", got)
	}

	// Doubling the error doubles the output, per axis independently.
	got2 := c.LateralPositionControl(r2.Point{X: 2, Y: 2}, r2.Point{}, r2.Point{}, r2.Point{}, r2.Point{})
	if got2.X != 2*got.X || got2.Y != 2*got.Y {
		t.Fatalf("accel=%v want twice %v", got2, got)
	}
}

func TestLateralPositionControl_FeedForward(t *testing.T) {
	c := newTestController(t)
	ff := r2.Point{X: 0.7, Y: -0.4}
	got := c.LateralPositionControl(r2.Point{}, r2.Point{}, r2.Point{}, r2.Point{}, ff)
	if got != ff {
		t.Fatalf("accel=%v want feed-forward %v", got, ff)
	}
}

func TestAltitudeControl_LevelHover(t *testing.T) {
	c := newTestController(t)
	rot := EulerToRotation(Attitude{})

	// Zero error at level attitude: the collective is -g in the internal
	// NED sign convention.
	got, err := c.AltitudeControl(3, 0, 3, 0, rot, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-(-9.81)) > testEps {
		t.Fatalf("collective=%v want -9.81", got)
	}
}

func TestAltitudeControl_TiltScalesCollective(t *testing.T) {
	c := newTestController(t)
	tilt := Attitude{Roll: 0.2, Pitch: 0.1}
	rot := EulerToRotation(tilt)

	got, err := c.AltitudeControl(0, 0, 0, 0, rot, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := -9.81 / (math.Cos(0.2) * math.Cos(0.1))
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("collective=%v want %v", got, want)
	}
}

func TestAltitudeControl_SingularAttitude(t *testing.T) {
	c := newTestController(t)
	rot := EulerToRotation(Attitude{Pitch: math.Pi / 2})
	if _, err := c.AltitudeControl(0, 0, 0, 0, rot, 0); !errors.Is(err, ErrSingularAttitude) {
		t.Fatalf("err=%v want ErrSingularAttitude", err)
	}
}

func TestRollPitchControl_ZeroAccelAtLevel(t *testing.T) {
	c := newTestController(t)
	rot := EulerToRotation(Attitude{})
	p, q, err := c.RollPitchControl(r2.Point{}, rot, -9.81)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 0 || q != 0 {
		t.Fatalf("(p,q)=(%v,%v) want (0,0)", p, q)
	}
}

func TestRollPitchControl_ZeroThrust(t *testing.T) {
	c := newTestController(t)
	rot := EulerToRotation(Attitude{})
	if _, _, err := c.RollPitchControl(r2.Point{X: 1}, rot, 0); !errors.Is(err, ErrZeroThrust) {
		t.Fatalf("err=%v want ErrZeroThrust", err)
	}
}

func TestRollPitchControl_LevelYawAligned(t *testing.T) {
	// At identity attitude the kinematic map reduces to
	// p = -ḃ_y, q = ḃ_x, so a pure north acceleration demand commands
	// pitch rate only.
	c := newTestController(t)
	rot := EulerToRotation(Attitude{})
	collective := -9.81

	p, q, err := c.RollPitchControl(r2.Point{X: 1}, rot, collective)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantQ := c.Gains().RollKp * (1 / collective)
	if math.Abs(p) > testEps {
		t.Fatalf("p=%v want 0", p)
	}
	if math.Abs(q-wantQ) > testEps {
		t.Fatalf("q=%v want %v", q, wantQ)
	}
}

func TestBodyRateControl_ZeroError(t *testing.T) {
	c := newTestController(t)
	rates := r3.Vector{X: 0.4, Y: -0.2, Z: 0.05}
	if got := c.BodyRateControl(rates, rates); got != (r3.Vector{}) {
		t.Fatalf("moment=%v want zero", got)
	}
}

func TestBodyRateControl_PerAxisGains(t *testing.T) {
	c := newTestController(t)
	got := c.BodyRateControl(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{})
	g := c.Gains()
	want := r3.Vector{X: g.RollRateKp, Y: g.PitchRateKp, Z: g.YawRateKp}
	if got != want {
		t.Fatalf("moment=%v want %v", got, want)
	}
}

func TestYawControl_NoWrapNeeded(t *testing.T) {
	c := newTestController(t)
	got := c.YawControl(0.5, 0.2)
	want := c.Gains().YawKp * 0.3
	if math.Abs(got-want) > testEps {
		t.Fatalf("yaw rate=%v want %v", got, want)
	}
}

func TestYawControl_WrapsAcrossPi(t *testing.T) {
	c := newTestController(t)

	// Commanded -3.0 rad from 3.0 rad: the short way is +0.283 rad through
	// the ±π seam, not -6.0 rad.
	got := c.YawControl(-3.0, 3.0)
	want := c.Gains().YawKp * (2*math.Pi - 6.0)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("yaw rate=%v want %v", got, want)
	}
	if got < 0 {
		t.Fatalf("yaw rate=%v should command the short (positive) direction", got)
	}
}

func hoverState() VehicleState {
	return VehicleState{Position: r3.Vector{Z: -3}}
}

func hoverTrajectory() Trajectory {
	return Trajectory{{Time: 0, Position: r3.Vector{Z: -3}}}
}

func TestUpdate_HoverEquilibrium(t *testing.T) {
	c := newTestController(t)

	out, err := c.Update(hoverState(), hoverTrajectory(), 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantThrust := c.Vehicle().MassKg * c.Vehicle().GravityMPS2
	if math.Abs(out.Thrust-wantThrust) > 1e-9 {
		t.Fatalf("thrust=%v want hover thrust %v", out.Thrust, wantThrust)
	}
	if out.Moment != (r3.Vector{}) {
		t.Fatalf("moment=%v want zero at equilibrium", out.Moment)
	}
}

func TestUpdate_Idempotent(t *testing.T) {
	c := newTestController(t)
	state := VehicleState{
		Position: r3.Vector{X: 1, Y: -0.5, Z: -2.5},
		Velocity: r3.Vector{X: 0.2, Y: 0.1, Z: -0.05},
		Attitude: Attitude{Roll: 0.05, Pitch: -0.03, Yaw: 0.4},
		Rates:    r3.Vector{X: 0.01, Y: 0.02, Z: -0.01},
	}
	tr := straightLine()

	a, errA := c.Update(state, tr, 4.2)
	b, errB := c.Update(state, tr, 4.2)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if a != b {
		t.Fatalf("repeated update differs: %+v vs %+v", a, b)
	}
}

func TestUpdate_SingularAttitudeFails(t *testing.T) {
	c := newTestController(t)
	state := hoverState()
	state.Attitude.Pitch = math.Pi / 2

	out, err := c.Update(state, hoverTrajectory(), 1.0)
	if !errors.Is(err, ErrSingularAttitude) {
		t.Fatalf("err=%v want ErrSingularAttitude", err)
	}
	if out != (ControlOutput{}) {
		t.Fatalf("faulted tick must return a zero output, got %+v", out)
	}
}

func TestUpdate_SaturatesMoments(t *testing.T) {
	c := newTestController(t)
	state := hoverState()
	state.Rates = r3.Vector{X: 100, Y: -100, Z: 100}

	out, err := c.Update(state, hoverTrajectory(), 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	max := c.Vehicle().MaxTorqueNm
	if out.Moment.X != -max || out.Moment.Y != max || out.Moment.Z != -max {
		t.Fatalf("moment=%v want saturation at ±%v", out.Moment, max)
	}
}

func TestUpdate_SaturatesThrust(t *testing.T) {
	c := newTestController(t)
	tr := Trajectory{{Time: 0, Position: r3.Vector{Z: 0}}}

	// Far below the target the collective goes positive, which maps to
	// zero mixer thrust rather than a negative one.
	below := VehicleState{Position: r3.Vector{Z: 50}}
	out, err := c.Update(below, tr, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Thrust != 0 {
		t.Fatalf("thrust=%v want clamp at 0", out.Thrust)
	}

	// Far above the target the demand saturates at the airframe limit.
	above := VehicleState{Position: r3.Vector{Z: -50}}
	out, err = c.Update(above, tr, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Thrust != c.Vehicle().MaxThrustN {
		t.Fatalf("thrust=%v want clamp at %v", out.Thrust, c.Vehicle().MaxThrustN)
	}
}
