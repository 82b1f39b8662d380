package raytrace

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/imaging"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/volume"
)

// Tape records what one tile's forward pass must replay backward: per
// crossing the retarder parameters, the matrix and the voxel actually
// gathered. Slots are parallel to the ray set's segment arena, so
// chunked executors can record concurrently without overlap.
type Tape struct {
	rs         *geometry.RaySet
	row0, col0 int

	params []SegParams
	mats   []jones.Matrix
	voxels []int32
}

func newTape(rs *geometry.RaySet, row0, col0 int) *Tape {
	n := len(rs.VoxelIdx)
	tp := &Tape{
		rs:   rs,
		row0: row0, col0: col0,
		params: make([]SegParams, n),
		mats:   make([]jones.Matrix, n),
		voxels: make([]int32, n),
	}
	id := jones.Identity()
	for i := range tp.mats {
		tp.mats[i] = id
		tp.voxels[i] = -1
	}
	return tp
}

func (tp *Tape) record(slot int, p SegParams, m jones.Matrix, voxel int32) {
	tp.params[slot] = p
	tp.mats[slot] = m
	tp.voxels[slot] = voxel
}

// VolumeGrad holds ∂L/∂Δn and ∂L/∂axis per voxel, flat in volume order.
type VolumeGrad struct {
	Shape  volume.Shape
	DeltaN []float64
	Axis   []r3.Vec
}

func newVolumeGrad(s volume.Shape) *VolumeGrad {
	n := s.Count()
	return &VolumeGrad{Shape: s, DeltaN: make([]float64, n), Axis: make([]r3.Vec, n)}
}

// backward walks every ray of the tile once: for ray products
// M = S_0·…·S_{n-1} the gradient of segment k is P_kᴴ·gM·Q_kᴴ with P_k
// the prefix before k and Q_k the suffix after it. prefixes is scratch
// of at least MaxSegments+1 entries.
func (tp *Tape) backward(dRet, dAzim *imaging.Image, g *VolumeGrad, prefixes []jones.Matrix) {
	rs := tp.rs
	for r := 0; r < rs.NumRays(); r++ {
		row := tp.row0 + int(rs.PixelI[r])
		col := tp.col0 + int(rs.PixelJ[r])
		wRet := dRet.At(row, col)
		wAz := dAzim.At(row, col)
		if wRet == 0 && wAz == 0 {
			continue
		}

		off := int(rs.Off[r])
		n := int(rs.Cnt[r])
		prefixes[0] = jones.Identity()
		for k := 0; k < n; k++ {
			prefixes[k+1] = prefixes[k].Mul(tp.mats[off+k])
		}
		gM := jones.RetAzimGrad(prefixes[n], wRet, wAz)

		suffix := jones.Identity()
		for k := n - 1; k >= 0; k-- {
			p := tp.params[off+k]
			if p.Dn != 0 {
				gS := prefixes[k].ConjTranspose().Mul(gM).Mul(suffix.ConjTranspose())
				segGrad(p, gS, rs.Frame[r], tp.voxels[off+k], g)
			}
			suffix = tp.mats[off+k].Mul(suffix)
		}
	}
}

// segGrad turns the matrix gradient of one crossing into parameter
// gradients and scatters them onto the voxel. Isotropic crossings never
// reach here; the |Δn| kink at zero keeps their gradient at zero.
func segGrad(p SegParams, gS jones.Matrix, frame geometry.Basis, voxel int32, g *VolumeGrad) {
	c := math.Cos(p.Rho / 2)
	s := math.Sin(p.Rho / 2)
	c2 := math.Cos(2 * p.Phi)
	s2 := math.Sin(2 * p.Phi)

	dRho := jones.Matrix{
		{complex(-s/2, c*c2/2), complex(0, c*s2/2)},
		{complex(0, c*s2/2), complex(-s/2, -c*c2/2)},
	}
	dPhi := jones.Matrix{
		{complex(0, -2*s*s2), complex(0, 2*s*c2)},
		{complex(0, 2*s*c2), complex(0, 2*s*s2)},
	}
	gRho := frobRe(gS, dRho)
	gPhi := frobRe(gS, dPhi)

	v := int(voxel)
	sgn := 1.0
	if p.Dn < 0 {
		sgn = -1
	}
	g.DeltaN[v] += gRho * sgn * (1 - p.A1*p.A1) * p.Coef

	gA1 := gRho * math.Abs(p.Dn) * p.Coef * (-2 * p.A1)
	var gA2, gA3 float64
	if den := p.A2*p.A2 + p.A3*p.A3; den > 0 {
		gA2 = gPhi * p.A3 / den
		gA3 = gPhi * -p.A2 / den
	}
	axisG := r3.Add(
		r3.Scale(gA1, frame.E1),
		r3.Add(r3.Scale(gA2, frame.E2), r3.Scale(gA3, frame.E3)),
	)
	g.Axis[v] = r3.Add(g.Axis[v], axisG)
}

// frobRe is the real Frobenius pairing Re Σ conj(a)·b.
func frobRe(a, b jones.Matrix) float64 {
	var sum float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			ca := a[i][j]
			cb := b[i][j]
			sum += real(ca)*real(cb) + imag(ca)*imag(cb)
		}
	}
	return sum
}
