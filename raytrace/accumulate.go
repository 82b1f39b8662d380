package raytrace

import (
	"errors"
	"fmt"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/volume"
)

// Accumulate multiplies every ray's segment matrices in traversal
// order, entry voxel leftmost, and returns one matrix per ray. The
// whole fan is shifted by (dy, dx) voxels before gathering. Rays
// shorter than the longest chain freeze at their own product while the
// longer ones keep integrating.
func Accumulate(rs *geometry.RaySet, vol *volume.Volume, vt VoxelTransform, dy, dx int) ([]jones.Matrix, error) {
	acc := newAccumulators(rs.NumRays())
	if err := AccumulateRange(rs, vol, vt, dy, dx, 0, rs.NumRays(), acc, nil); err != nil {
		return nil, err
	}
	return acc, nil
}

func newAccumulators(n int) []jones.Matrix {
	acc := make([]jones.Matrix, n)
	id := jones.Identity()
	for i := range acc {
		acc[i] = id
	}
	return acc
}

// AccumulateRange runs the step-major loop over rays [lo, hi) so
// executors can partition a fan. acc must come in holding identities.
// When tape is non-nil the transform must implement Differentiable and
// every crossing of the range gets recorded.
func AccumulateRange(rs *geometry.RaySet, vol *volume.Volume, vt VoxelTransform, dy, dx, lo, hi int, acc []jones.Matrix, tape *Tape) error {
	shape := vol.Shape()
	shift := int32(dy*shape.X + dx)

	var diff Differentiable
	if tape != nil {
		var ok bool
		diff, ok = vt.(Differentiable)
		if !ok {
			return errors.New("raytrace: transform does not expose parameters for gradients")
		}
	}

	for m := 0; ; m++ {
		active := rs.ActiveAt(m)
		if active <= lo {
			return nil
		}
		if active > hi {
			active = hi
		}
		for r := lo; r < active; r++ {
			slot := int(rs.Off[r]) + m
			base := rs.VoxelIdx[slot]
			x := int(base) % shape.X
			y := (int(base) / shape.X) % shape.Y
			if xx, yy := x+dx, y+dy; xx < 0 || xx >= shape.X || yy < 0 || yy >= shape.Y {
				return fmt.Errorf("%w: voxel (y=%d, x=%d) shifted by (%d, %d) leaves %s",
					ErrOutOfBounds, y, x, dy, dx, shape)
			}
			idx := int(base + shift)

			dn := vol.DeltaNFlat(idx)
			if dn == 0 {
				// Isotropic voxels leave the state untouched.
				if tape != nil {
					tape.record(slot, SegParams{}, jones.Identity(), int32(idx))
				}
				continue
			}
			axis := vol.AxisFlat(idx)
			lenUm := rs.SegLen[slot]
			if tape != nil {
				p := diff.Params(dn, axis, rs.Frame[r], lenUm)
				mat := p.Matrix()
				tape.record(slot, p, mat, int32(idx))
				acc[r] = acc[r].Mul(mat)
				continue
			}
			acc[r] = acc[r].Mul(vt.Transform(dn, axis, rs.Frame[r], lenUm))
		}
	}
}
