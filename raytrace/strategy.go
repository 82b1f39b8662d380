// Package raytrace integrates polarization state along precomputed ray
// fans and assembles the per-lens tiles into sensor images.
package raytrace

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/jones"
)

// VoxelTransform maps one voxel crossing to its Jones matrix.
type VoxelTransform interface {
	Transform(dn float64, axis r3.Vec, frame geometry.Basis, lenUm float64) jones.Matrix
}

// Differentiable is the optional interface the backward pass needs: the
// transform reports the retarder parameters of a crossing so the tape
// can replay it.
type Differentiable interface {
	VoxelTransform
	Params(dn float64, axis r3.Vec, frame geometry.Basis, lenUm float64) SegParams
}

// SegParams are the linear-retarder parameters of one voxel crossing.
type SegParams struct {
	Rho, Phi   float64
	A1, A2, A3 float64 // optic axis in the ray frame
	Coef       float64 // 2π·length/λ
	Dn         float64
}

// Matrix builds the crossing's Jones matrix. Isotropic crossings give
// the identity.
func (p SegParams) Matrix() jones.Matrix {
	if p.Dn == 0 {
		return jones.Identity()
	}
	return jones.Retarder(p.Rho, p.Phi)
}

// Retarder models each voxel as a linear retarder: the phase grows with
// the crossing length and the birefringence component transverse to the
// ray, and the fast axis is the optic axis projected onto the ray frame.
// Negative birefringence swaps the fast and slow axes, which the quarter
// turn on Phi expresses.
type Retarder struct {
	WavelengthUm float64
}

var _ Differentiable = Retarder{}

func (rt Retarder) Transform(dn float64, axis r3.Vec, frame geometry.Basis, lenUm float64) jones.Matrix {
	return rt.Params(dn, axis, frame, lenUm).Matrix()
}

func (rt Retarder) Params(dn float64, axis r3.Vec, frame geometry.Basis, lenUm float64) SegParams {
	if dn == 0 {
		return SegParams{}
	}
	a1 := r3.Dot(axis, frame.E1)
	a2 := r3.Dot(axis, frame.E2)
	a3 := r3.Dot(axis, frame.E3)
	coef := 2 * math.Pi * lenUm / rt.WavelengthUm
	rho := math.Abs(dn) * (1 - a1*a1) * coef
	phi := math.Atan2(a2, a3)
	if dn < 0 {
		phi += math.Pi / 2
	}
	return SegParams{Rho: rho, Phi: phi, A1: a1, A2: a2, A3: a3, Coef: coef, Dn: dn}
}
