package volume

import (
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Params carries the preset-specific knobs. Fields a preset does not use
// are ignored; zero values fall back to the documented defaults.
type Params struct {
	DeltaN      float64    // single_voxel, n_planes, ellipsoid; default 0.01
	DeltaNRange [2]float64 // random; default [0, 0.01]
	Axis        r3.Vec     // single_voxel, n_planes; default +x
	Offset      [3]int     // single_voxel: (z, y, x) offset from center
	Planes      int        // n_planes; default 1
	Radius      [3]float64 // ellipsoid semi-axes in voxels (z, y, x)
	Center      [3]float64 // ellipsoid center, fraction of extent; default 0.5
	Shell       float64    // ellipsoid border half-thickness; default 0.1
	Seed        int64      // random
}

// FromPreset fills a fresh volume with a canonical test pattern. Known
// modes: zeros, single_voxel, random, n_planes, ellipsoid. An unknown
// mode returns ErrUnknownPreset.
func FromPreset(mode string, shape Shape, p Params) (*Volume, error) {
	if !shape.valid() {
		return nil, fmt.Errorf("%w: invalid shape %v", ErrShapeMismatch, shape)
	}
	v := New(shape)
	switch mode {
	case "zeros":
		// already isotropic everywhere
	case "single_voxel":
		if err := fillSingleVoxel(v, p); err != nil {
			return nil, err
		}
	case "random":
		fillRandom(v, p)
	case "n_planes":
		fillPlanes(v, p)
	case "ellipsoid":
		fillEllipsoid(v, p)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, mode)
	}
	return v, nil
}

func defaultDeltaN(dn float64) float64 {
	if dn == 0 {
		return 0.01
	}
	return dn
}

func defaultAxis(a r3.Vec) r3.Vec {
	n := r3.Norm(a)
	if n == 0 {
		return r3.Vec{X: 1}
	}
	return r3.Scale(1/n, a)
}

func fillSingleVoxel(v *Volume, p Params) error {
	cz, cy, cx := v.shape.Center()
	z, y, x := cz+p.Offset[0], cy+p.Offset[1], cx+p.Offset[2]
	if z < 0 || z >= v.shape.Z || y < 0 || y >= v.shape.Y || x < 0 || x >= v.shape.X {
		return fmt.Errorf("volume: single_voxel offset %v lands outside grid %v",
			p.Offset, v.shape)
	}
	v.SetVoxel(z, y, x, defaultDeltaN(p.DeltaN), defaultAxis(p.Axis))
	return nil
}

func fillRandom(v *Volume, p Params) {
	rng := rand.New(rand.NewSource(p.Seed))
	lo, hi := p.DeltaNRange[0], p.DeltaNRange[1]
	if lo == 0 && hi == 0 {
		hi = 0.01
	}

	for z := 0; z < v.shape.Z; z++ {
		for y := 0; y < v.shape.Y; y++ {
			for x := 0; x < v.shape.X; x++ {
				dn := lo + rng.Float64()*(hi-lo)
				v.SetVoxel(z, y, x, dn, randomUnit(rng))
			}
		}
	}
}

// randomUnit draws a uniformly distributed direction by rejection
// sampling inside the unit ball.
func randomUnit(rng *rand.Rand) r3.Vec {
	for {
		a := r3.Vec{
			X: 2*rng.Float64() - 1,
			Y: 2*rng.Float64() - 1,
			Z: 2*rng.Float64() - 1,
		}
		n := r3.Norm(a)
		if n > 1e-3 && n <= 1 {
			return r3.Scale(1/n, a)
		}
	}
}

func fillPlanes(v *Volume, p Params) {
	planes := p.Planes
	if planes < 1 {
		planes = 1
	}
	dn := defaultDeltaN(p.DeltaN)
	axis := defaultAxis(p.Axis)

	for k := 1; k <= planes; k++ {
		z := k * v.shape.Z / (planes + 1)
		if z >= v.shape.Z {
			z = v.shape.Z - 1
		}
		for y := 0; y < v.shape.Y; y++ {
			for x := 0; x < v.shape.X; x++ {
				v.SetVoxel(z, y, x, dn, axis)
			}
		}
	}
}

func fillEllipsoid(v *Volume, p Params) {
	rz, ry, rx := p.Radius[0], p.Radius[1], p.Radius[2]
	if rz == 0 && ry == 0 && rx == 0 {
		rz = float64(v.shape.Z) / 4
		ry = float64(v.shape.Y) / 4
		rx = float64(v.shape.X) / 4
	}
	shell := p.Shell
	if shell == 0 {
		shell = 0.1
	}
	center := p.Center
	if center == [3]float64{} {
		center = [3]float64{0.5, 0.5, 0.5}
	}
	cz := center[0] * float64(v.shape.Z)
	cy := center[1] * float64(v.shape.Y)
	cx := center[2] * float64(v.shape.X)
	dn := defaultDeltaN(p.DeltaN)

	degenerate := 0
	for z := 0; z < v.shape.Z; z++ {
		for y := 0; y < v.shape.Y; y++ {
			for x := 0; x < v.shape.X; x++ {
				dz := (float64(z) + 0.5 - cz) / rz
				dy := (float64(y) + 0.5 - cy) / ry
				dx := (float64(x) + 0.5 - cx) / rx
				f := dz*dz + dy*dy + dx*dx
				if f < 1-shell || f > 1+shell {
					continue
				}
				// Surface normal of the implicit ellipsoid, as (x, y, z).
				grad := r3.Vec{X: dx / rx, Y: dy / ry, Z: dz / rz}
				n := r3.Norm(grad)
				if n == 0 {
					degenerate++
					continue
				}
				v.SetVoxel(z, y, x, dn, r3.Scale(1/n, grad))
			}
		}
	}
	if degenerate > 0 {
		slog.Warn("ellipsoid preset skipped voxels with degenerate normals",
			"count", degenerate)
	}
}
