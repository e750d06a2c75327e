package control

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Waypoint is one trajectory sample: NED position (m), yaw (rad) and the
// absolute time (s) at which the vehicle should be there.
type Waypoint struct {
	Time     float64
	Position r3.Vector
	Yaw      float64
}

// Trajectory is an ordered list of waypoints with non-decreasing times. It
// is read-only during a control call and may be replaced wholesale between
// ticks.
type Trajectory []Waypoint

// Validate fails fast on trajectories the sampler cannot serve: empty lists
// and time sequences that go backwards.
func (tr Trajectory) Validate() error {
	if len(tr) == 0 {
		return fmt.Errorf("%w: no waypoints", ErrInvalidTrajectory)
	}
	for i := 1; i < len(tr); i++ {
		if tr[i].Time < tr[i-1].Time {
			return fmt.Errorf("%w: time decreases at waypoint %d (%.3f -> %.3f)",
				ErrInvalidTrajectory, i, tr[i-1].Time, tr[i].Time)
		}
	}
	return nil
}

// StartTime returns the first waypoint's time.
func (tr Trajectory) StartTime() float64 { return tr[0].Time }

// EndTime returns the last waypoint's time.
func (tr Trajectory) EndTime() float64 { return tr[len(tr)-1].Time }

// nearestIndex returns the index of the waypoint whose time is closest to t,
// ties going to the lower index.
func (tr Trajectory) nearestIndex(t float64) int {
	best := 0
	bestDist := math.Abs(tr[0].Time - t)
	for i := 1; i < len(tr); i++ {
		if d := math.Abs(tr[i].Time - t); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// Sample evaluates the trajectory at time t: position and velocity are
// linear over the active segment, yaw is taken verbatim from the governing
// waypoint. Past the final waypoint the position is held and the velocity is
// zero; before the first waypoint the command clamps to the first waypoint
// rather than indexing off the front of the list.
//
// The trajectory must have passed Validate.
func (tr Trajectory) Sample(t float64) Setpoint {
	i := tr.nearestIndex(t)

	var (
		p0, p1 r3.Vector
		t0, t1 float64
		yaw    float64
	)
	switch {
	case t < tr[i].Time:
		if i == 0 {
			// Before the start of the timeline: hold the first waypoint.
			return Setpoint{Position: tr[0].Position, Yaw: tr[0].Yaw}
		}
		p0, p1 = tr[i-1].Position, tr[i].Position
		t0, t1 = tr[i-1].Time, tr[i].Time
		yaw = tr[i-1].Yaw
	case i == len(tr)-1:
		// Past the end: degenerate unit-span segment from the final
		// waypoint to itself, so velocity comes out zero.
		p0, p1 = tr[i].Position, tr[i].Position
		t0, t1 = 0, 1
		yaw = tr[i].Yaw
	default:
		p0, p1 = tr[i].Position, tr[i+1].Position
		t0, t1 = tr[i].Time, tr[i+1].Time
		yaw = tr[i].Yaw
	}

	span := t1 - t0
	if span <= 0 {
		// Coincident waypoint times: hold the segment start.
		return Setpoint{Position: p0, Yaw: yaw}
	}

	delta := p1.Sub(p0)
	return Setpoint{
		Position: p0.Add(delta.Mul((t - t0) / span)),
		Velocity: delta.Mul(1 / span),
		Yaw:      yaw,
	}
}
