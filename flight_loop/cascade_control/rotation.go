package control

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// EulerToRotation builds the body-to-inertial rotation matrix
// R = Rz(yaw)·Ry(pitch)·Rx(roll) for the given attitude.
//
// R.At(2, 2) = cos(roll)·cos(pitch) is used as a divisor by the altitude and
// roll/pitch stages; callers must keep the vehicle away from a 90° tilt or
// handle ErrSingularAttitude from those stages.
func EulerToRotation(a Attitude) *mat.Dense {
	sr, cr := math.Sincos(a.Roll)
	sp, cp := math.Sincos(a.Pitch)
	sy, cy := math.Sincos(a.Yaw)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cr, -sr,
		0, sr, cr,
	})
	ry := mat.NewDense(3, 3, []float64{
		cp, 0, sp,
		0, 1, 0,
		-sp, 0, cp,
	})
	rz := mat.NewDense(3, 3, []float64{
		cy, -sy, 0,
		sy, cy, 0,
		0, 0, 1,
	})

	var zy, r mat.Dense
	zy.Mul(rz, ry)
	r.Mul(&zy, rx)
	return &r
}
