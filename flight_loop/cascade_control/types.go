package control

import "github.com/golang/geo/r3"

// Attitude is the vehicle orientation as intrinsic Euler angles, radians.
type Attitude struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// VehicleState is one estimator sample: position and velocity in the local
// NED frame (meters, m/s), attitude in radians and body rates (p, q, r) in
// rad/s. The controller reads it once per tick and never retains it.
type VehicleState struct {
	Position r3.Vector // north, east, down
	Velocity r3.Vector
	Attitude Attitude
	Rates    r3.Vector // p (roll), q (pitch), r (yaw)
}

// Setpoint is the instantaneous trajectory command: NED position, velocity
// and yaw (radians).
type Setpoint struct {
	Position r3.Vector
	Velocity r3.Vector
	Yaw      float64
}

// ControlOutput is the per-tick actuator command consumed by the mixer:
// total thrust in Newtons (positive up) and body moments in N·m
// (X=roll, Y=pitch, Z=yaw).
type ControlOutput struct {
	Thrust float64
	Moment r3.Vector
}
