package raytrace

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/volume"
)

// Executor runs the per-ray accumulation of one tile. Implementations
// may partition [0, NumRays) however they like; per-ray products are
// independent, so any partition gives the same result.
type Executor interface {
	Run(rs *geometry.RaySet, vol *volume.Volume, vt VoxelTransform, dy, dx int, tape *Tape) ([]jones.Matrix, error)
}

// Serial walks all rays on the calling goroutine.
type Serial struct{}

func (Serial) Run(rs *geometry.RaySet, vol *volume.Volume, vt VoxelTransform, dy, dx int, tape *Tape) ([]jones.Matrix, error) {
	acc := newAccumulators(rs.NumRays())
	if err := AccumulateRange(rs, vol, vt, dy, dx, 0, rs.NumRays(), acc, tape); err != nil {
		return nil, err
	}
	return acc, nil
}

// Parallel splits the ray range into contiguous chunks, one goroutine
// each. Every chunk runs the same step-major loop over its own rays, so
// the products match Serial exactly.
type Parallel struct {
	Workers int // 0 means GOMAXPROCS
}

func (p Parallel) Run(rs *geometry.RaySet, vol *volume.Volume, vt VoxelTransform, dy, dx int, tape *Tape) ([]jones.Matrix, error) {
	n := rs.NumRays()
	w := p.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	if w <= 1 {
		return Serial{}.Run(rs, vol, vt, dy, dx, tape)
	}

	acc := newAccumulators(n)
	chunk := (n + w - 1) / w
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			return AccumulateRange(rs, vol, vt, dy, dx, lo, hi, acc, tape)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return acc, nil
}
