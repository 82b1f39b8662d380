package geometry

import (
	"math"

	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/volume"
)

// FanSpec fixes everything a ray fan depends on. It mirrors the optical
// configuration without depending on it.
type FanSpec struct {
	Shape       volume.Shape
	PixelsPerML int
	// FootprintVoxels is the transverse span one micro-lens covers, in
	// voxels. Zero means the full volume extent (used by Parallel only).
	FootprintVoxels int
	NA              float64
	NMedium         float64
	VoxelSizeUm     float64
}

// Fan traces the converging cone of a single micro-lens: pixel (i, j)
// maps to normalized aperture coordinates and its ray is aimed at the
// volume center with polar angle asin(r·NA/n). Pixels outside the
// aperture circle get no ray and stay dark on the sensor.
func Fan(spec FanSpec) *RaySet {
	p := spec.PixelsPerML
	c := float64(p-1) / 2
	half := float64(p) / 2
	maxSin := spec.NA / spec.NMedium
	if maxSin > 1 {
		maxSin = 1
	}

	focus := gridCenter(spec.Shape)
	// Far enough back that every cone ray starts outside the grid.
	back := float64(spec.Shape.Z + spec.Shape.Y + spec.Shape.X)

	b := NewBuilder(spec.Shape, p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			u := (float64(j) - c) / half
			v := (float64(i) - c) / half
			r := math.Hypot(u, v)
			if r > 1 {
				continue
			}
			dir := r3.Vec{Z: 1}
			if r > 0 {
				theta := unit.Angle(math.Asin(r * maxSin))
				phi := math.Atan2(v, u)
				st := theta.Sin()
				dir = r3.Vec{
					X: st * math.Cos(phi),
					Y: st * math.Sin(phi),
					Z: theta.Cos(),
				}
			}
			origin := r3.Sub(focus, r3.Scale(back, dir))
			addMarch(b, i, j, origin, dir, spec)
		}
	}
	return b.Build()
}

// Parallel traces an axial beam: one ray straight down +z per pixel,
// placed on a uniform grid over the micro-lens footprint (or the whole
// transverse extent when FootprintVoxels is zero).
func Parallel(spec FanSpec) *RaySet {
	p := spec.PixelsPerML
	fx := float64(spec.FootprintVoxels)
	fy := fx
	if spec.FootprintVoxels == 0 {
		fx = float64(spec.Shape.X)
		fy = float64(spec.Shape.Y)
	}
	cx := float64(spec.Shape.X) / 2
	cy := float64(spec.Shape.Y) / 2

	dir := r3.Vec{Z: 1}
	b := NewBuilder(spec.Shape, p)
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			origin := r3.Vec{
				X: cx + (float64(j)+0.5-float64(p)/2)/float64(p)*fx,
				Y: cy + (float64(i)+0.5-float64(p)/2)/float64(p)*fy,
				Z: -1,
			}
			addMarch(b, i, j, origin, dir, spec)
		}
	}
	return b.Build()
}

func addMarch(b *Builder, i, j int, origin, dir r3.Vec, spec FanSpec) {
	segs := March(origin, dir, spec.Shape, spec.VoxelSizeUm)
	if len(segs) == 0 {
		return
	}
	voxels := make([]int32, len(segs))
	lens := make([]float64, len(segs))
	for k, s := range segs {
		voxels[k] = s.Voxel
		lens[k] = s.Len
	}
	b.Add(i, j, dir, NewBasis(dir), voxels, lens)
}

func gridCenter(s volume.Shape) r3.Vec {
	return r3.Vec{
		X: float64(s.X) / 2,
		Y: float64(s.Y) / 2,
		Z: float64(s.Z) / 2,
	}
}
