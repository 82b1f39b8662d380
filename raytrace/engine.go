package raytrace

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/imaging"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/optics"
	"github.com/makzator/forward-model/volume"
)

// Engine renders sensor images of a birefringent volume through the
// micro-lens array.
type Engine struct {
	cfg  optics.Config
	rays *geometry.RaySet

	// Exec runs each tile's ray batch; nil means Serial.
	Exec Executor
	// VT maps voxel crossings to matrices; nil means the configured
	// wavelength's Retarder.
	VT VoxelTransform
}

// Options toggle per-render work.
type Options struct {
	// Gradients keeps the per-tile tapes Backward needs.
	Gradients bool
	// Intensity also renders the PolScope frame stack.
	Intensity bool
	// TileWorkers bounds how many tiles render at once; values below 2
	// keep the tile loop serial.
	TileWorkers int
}

// New validates the configuration and traces (or fetches from cache)
// the per-lens ray fan shared by all tiles.
func New(cfg optics.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rs := geometry.Cached(cfg.Fingerprint(), func() *geometry.RaySet {
		return geometry.Fan(cfg.FanSpec())
	})
	return NewWithFan(cfg, rs), nil
}

// NewWithFan wires a custom ray fan, e.g. geometry.Parallel for axial
// beams. The config is still validated when Render runs.
func NewWithFan(cfg optics.Config, rs *geometry.RaySet) *Engine {
	return &Engine{cfg: cfg, rays: rs}
}

// Render traces every micro-lens tile and assembles the retardance and
// azimuth images, plus intensity frames and gradient tapes when
// requested. All preflight checks run before any tile is touched.
func (e *Engine) Render(vol *volume.Volume, opt Options) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if got, want := vol.Shape(), e.cfg.Shape(); got != want {
		return nil, fmt.Errorf("%w: volume %s, config %s", ErrShapeMismatch, got, want)
	}
	nml := e.cfg.NMicroLenses
	fp := e.cfg.NVoxelsPerML
	// Some fan rays spread beyond the footprint directly under the lens,
	// so the check uses the traced span, not just the lens pitch.
	if minY, maxY, minX, maxX, ok := e.rays.Bounds(); ok {
		shift := fp * (nml - 1) / 2
		if minY-shift < 0 || maxY+shift >= vol.Shape().Y ||
			minX-shift < 0 || maxX+shift >= vol.Shape().X {
			return nil, fmt.Errorf("%w: %d micro-lenses of %d voxels push the fan span y[%d,%d] x[%d,%d] outside %s; use fewer lenses or a larger volume",
				ErrFootprint, nml, fp, minY, maxY, minX, maxX, vol.Shape())
		}
	}

	vt := e.VT
	if vt == nil {
		vt = Retarder{WavelengthUm: e.cfg.WavelengthUm}
	}
	if opt.Gradients {
		if _, ok := vt.(Differentiable); !ok {
			return nil, fmt.Errorf("raytrace: %T does not expose parameters for gradients", vt)
		}
	}
	exec := e.Exec
	if exec == nil {
		exec = Serial{}
	}

	p := e.cfg.PixelsPerML
	side := nml * p
	res := &Result{
		Retardance: imaging.NewImage(side, side),
		Azimuth:    imaging.NewImage(side, side),
		shape:      vol.Shape(),
	}
	var analyzer jones.Matrix
	var inputs []jones.Vector
	if opt.Intensity {
		settings, ins := polscopeInputs(e.cfg)
		inputs = ins
		analyzer = e.cfg.Analyzer.ToJones()
		res.Intensity = make([]IntensityFrame, len(settings))
		for k, st := range settings {
			res.Intensity[k] = IntensityFrame{Name: st.Name, Image: imaging.NewImage(side, side)}
		}
	}
	if opt.Gradients {
		res.tapes = make([]*Tape, nml*nml)
	}

	half := (nml - 1) / 2
	total := nml * nml
	var done atomic.Int64

	renderTile := func(ti, tj int) error {
		row0 := (ti + half) * p
		col0 := (tj + half) * p
		var tape *Tape
		if opt.Gradients {
			tape = newTape(e.rays, row0, col0)
			res.tapes[(ti+half)*nml+(tj+half)] = tape
		}
		acc, err := exec.Run(e.rays, vol, vt, fp*ti, fp*tj, tape)
		if err != nil {
			return err
		}
		for r := 0; r < e.rays.NumRays(); r++ {
			row := row0 + int(e.rays.PixelI[r])
			col := col0 + int(e.rays.PixelJ[r])
			ret, az := jones.RetAzim(acc[r])
			res.Retardance.Set(row, col, ret)
			res.Azimuth.Set(row, col, az)
			for k := range res.Intensity {
				out := analyzer.MulVec(acc[r].MulVec(inputs[k]))
				res.Intensity[k].Image.Set(row, col, out.Intensity())
			}
		}
		slog.Debug("tile rendered", "lens_row", ti, "lens_col", tj,
			"done", done.Add(1), "total", total)
		return nil
	}

	var g errgroup.Group
	workers := opt.TileWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for ti := -half; ti <= half; ti++ {
		for tj := -half; tj <= half; tj++ {
			ti, tj := ti, tj
			g.Go(func() error { return renderTile(ti, tj) })
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
