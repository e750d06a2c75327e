package control

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// NonlinearController is the cascaded flight-control law: it turns a
// trajectory and the current vehicle state into one thrust/moment command
// per tick. It holds no mutable state, so identical inputs always produce
// identical outputs and a single instance may serve loops at several rates.
type NonlinearController struct {
	gains GainSet
	veh   VehicleParameters
}

// NewNonlinearController builds a controller from an immutable gain set and
// the airframe's physical parameters.
func NewNonlinearController(gains GainSet, veh VehicleParameters) (*NonlinearController, error) {
	if err := veh.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle parameters: %w", err)
	}
	return &NonlinearController{gains: gains, veh: veh}, nil
}

// Gains returns the controller's gain set.
func (c *NonlinearController) Gains() GainSet { return c.gains }

// Vehicle returns the controller's airframe parameters.
func (c *NonlinearController) Vehicle() VehicleParameters { return c.veh }

// Update runs the full cascade for one tick: sample the trajectory at time
// t, close the lateral and altitude loops, map desired acceleration to body
// rates through the attitude loop and close the body-rate loop.
//
// On a degenerate condition (near-90° tilt, vanishing collective) it
// returns a zero output and a wrapped sentinel error; the caller should
// hold its last good command.
func (c *NonlinearController) Update(state VehicleState, traj Trajectory, t float64) (ControlOutput, error) {
	sp := traj.Sample(t)

	accelCmd := c.LateralPositionControl(
		r2.Point{X: sp.Position.X, Y: sp.Position.Y},
		r2.Point{X: sp.Velocity.X, Y: sp.Velocity.Y},
		r2.Point{X: state.Position.X, Y: state.Position.Y},
		r2.Point{X: state.Velocity.X, Y: state.Velocity.Y},
		r2.Point{},
	)

	// One rotation matrix per tick, shared by the altitude and attitude
	// stages.
	rot := EulerToRotation(state.Attitude)

	// NED is down-positive; the altitude loop works up-positive.
	collective, err := c.AltitudeControl(
		-sp.Position.Z, -sp.Velocity.Z,
		-state.Position.Z, -state.Velocity.Z,
		rot, 0,
	)
	if err != nil {
		return ControlOutput{}, fmt.Errorf("altitude loop: %w", err)
	}

	pCmd, qCmd, err := c.RollPitchControl(accelCmd, rot, collective)
	if err != nil {
		return ControlOutput{}, fmt.Errorf("roll/pitch loop: %w", err)
	}
	rCmd := c.YawControl(sp.Yaw, state.Attitude.Yaw)

	moment := c.BodyRateControl(r3.Vector{X: pCmd, Y: qCmd, Z: rCmd}, state.Rates)

	// The collective keeps the internal NED sign convention (negative at
	// hover); the mixer expects Newtons, positive up.
	thrust := clamp(-c.veh.MassKg*collective, 0, c.veh.MaxThrustN)

	return ControlOutput{
		Thrust: thrust,
		Moment: r3.Vector{
			X: clamp(moment.X, -c.veh.MaxTorqueNm, c.veh.MaxTorqueNm),
			Y: clamp(moment.Y, -c.veh.MaxTorqueNm, c.veh.MaxTorqueNm),
			Z: clamp(moment.Z, -c.veh.MaxTorqueNm, c.veh.MaxTorqueNm),
		},
	}, nil
}

// LateralPositionControl closes the horizontal position loop: PD per axis
// (north, east) plus feed-forward, producing a desired horizontal
// acceleration in m/s².
func (c *NonlinearController) LateralPositionControl(posCmd, velCmd, pos, vel, accelFF r2.Point) r2.Point {
	return r2.Point{
		X: c.gains.PosNorthKp*(posCmd.X-pos.X) + c.gains.PosNorthKd*(velCmd.X-vel.X) + accelFF.X,
		Y: c.gains.PosEastKp*(posCmd.Y-pos.Y) + c.gains.PosEastKd*(velCmd.Y-vel.Y) + accelFF.Y,
	}
}

// AltitudeControl closes the vertical loop. Inputs are up-positive; rot is
// the current body-to-inertial rotation matrix. The returned collective
// command keeps the NED-law sign (negative at hover) and feeds the
// roll/pitch stage; Update converts it to mixer thrust.
func (c *NonlinearController) AltitudeControl(altCmd, vvelCmd, alt, vvel float64, rot *mat.Dense, accelFF float64) (float64, error) {
	r22 := rot.At(2, 2)
	if abs(r22) < denomEps {
		return 0, fmt.Errorf("%w: R[2][2]=%g", ErrSingularAttitude, r22)
	}
	u1 := c.gains.AltKp*(altCmd-alt) + c.gains.AltKd*(vvelCmd-vvel) + accelFF
	return (u1 - c.veh.GravityMPS2) / r22, nil
}

// RollPitchControl maps desired horizontal acceleration and the current
// collective into body roll/pitch rate commands. The tilt targets are
// proportional control on the rotation matrix's third column, and the rate
// solve is the exact kinematic relation
//
//	[p_c q_c]ᵗ = (1/R[2][2]) · [[R[1][0], −R[0][0]], [R[1][1], −R[0][1]]] · [ḃ_x ḃ_y]ᵗ
//
// valid at any attitude with R[2][2] ≠ 0.
func (c *NonlinearController) RollPitchControl(accelCmd r2.Point, rot *mat.Dense, collective float64) (pCmd, qCmd float64, err error) {
	if abs(collective) < denomEps {
		return 0, 0, fmt.Errorf("%w: collective=%g", ErrZeroThrust, collective)
	}
	r22 := rot.At(2, 2)
	if abs(r22) < denomEps {
		return 0, 0, fmt.Errorf("%w: R[2][2]=%g", ErrSingularAttitude, r22)
	}

	bxDot := c.gains.RollKp * (accelCmd.X/collective - rot.At(0, 2))
	byDot := c.gains.PitchKp * (accelCmd.Y/collective - rot.At(1, 2))

	k := mat.NewDense(2, 2, []float64{
		rot.At(1, 0), -rot.At(0, 0),
		rot.At(1, 1), -rot.At(0, 1),
	})
	k.Scale(1/r22, k)

	var rates mat.VecDense
	rates.MulVec(k, mat.NewVecDense(2, []float64{bxDot, byDot}))
	return rates.AtVec(0), rates.AtVec(1), nil
}

// BodyRateControl closes the innermost loop: per-axis proportional control
// on body-rate error, producing moments in N·m. No cross-axis coupling.
func (c *NonlinearController) BodyRateControl(rateCmd, rate r3.Vector) r3.Vector {
	return r3.Vector{
		X: c.gains.RollRateKp * (rateCmd.X - rate.X),
		Y: c.gains.PitchRateKp * (rateCmd.Y - rate.Y),
		Z: c.gains.YawRateKp * (rateCmd.Z - rate.Z),
	}
}

// YawControl turns yaw error into a yaw-rate command. The error is wrapped
// into (−π, π] first so the vehicle always turns the short way across the
// ±π seam.
func (c *NonlinearController) YawControl(yawCmd, yaw float64) float64 {
	return c.gains.YawKp * wrapAngle(yawCmd-yaw)
}
