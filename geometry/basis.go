// Package geometry precomputes what the tracing core consumes: for every
// sensor pixel behind one micro-lens, the ordered voxel segments its ray
// crosses and the ray's local direction frame.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Basis is the local orthonormal frame of a ray: E1 points along the
// direction of travel, E2 and E3 span the transverse plane.
type Basis struct {
	E1, E2, E3 r3.Vec
}

// NewBasis builds the frame for a unit direction by rotating the lab
// frame so that ẑ lands on dir. Axial rays keep the lab frame itself
// (E2 = ŷ, E3 = x̂), which pins the azimuth origin to the +x axis.
func NewBasis(dir r3.Vec) Basis {
	zHat := r3.Vec{Z: 1}
	axis := r3.Cross(zHat, dir)
	n := r3.Norm(axis)
	if n < 1e-12 {
		return Basis{E1: dir, E2: r3.Vec{Y: 1}, E3: r3.Vec{X: 1}}
	}
	alpha := math.Acos(clamp(r3.Dot(zHat, dir), -1, 1))
	rot := r3.NewRotation(alpha, r3.Scale(1/n, axis))
	return Basis{
		E1: dir,
		E2: rot.Rotate(r3.Vec{Y: 1}),
		E3: rot.Rotate(r3.Vec{X: 1}),
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
