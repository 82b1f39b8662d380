package raytrace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/optics"
	"github.com/makzator/forward-model/volume"
)

func parallelEngine(cfg optics.Config) *Engine {
	return NewWithFan(cfg, geometry.Parallel(cfg.FanSpec()))
}

func TestRenderRejectsShapeMismatch(t *testing.T) {
	cfg := optics.Default()
	vol := volume.New(volume.Shape{Z: 9, Y: 9, X: 9})

	_, err := parallelEngine(cfg).Render(vol, Options{})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestRenderRejectsOversizedFootprint(t *testing.T) {
	cfg := optics.Default()
	cfg.NMicroLenses = 3
	cfg.NVoxelsPerML = 5 // lens array spans 15 voxels, volume has 11

	_, err := parallelEngine(cfg).Render(volume.New(cfg.Shape()), Options{})
	require.ErrorIs(t, err, ErrFootprint)
	require.Contains(t, err.Error(), "fewer lenses")
}

func TestRenderRejectsInvalidConfig(t *testing.T) {
	cfg := optics.Default()
	cfg.NMicroLenses = 2

	_, err := New(cfg)
	require.ErrorIs(t, err, optics.ErrInvalidConfig)

	def := optics.Default()
	eng := NewWithFan(cfg, geometry.Parallel(def.FanSpec()))
	_, err = eng.Render(volume.New(cfg.Shape()), Options{})
	require.ErrorIs(t, err, optics.ErrInvalidConfig)
}

func TestRenderZeroVolumeIsDark(t *testing.T) {
	cfg := optics.Default()
	cfg.PixelsPerML = 7

	eng, err := New(cfg)
	require.NoError(t, err)
	res, err := eng.Render(volume.New(cfg.Shape()), Options{})
	require.NoError(t, err)

	for i, v := range res.Retardance.Pix {
		require.Zero(t, v, "retardance pixel %d", i)
	}
	for i, v := range res.Azimuth.Pix {
		require.Zero(t, v, "azimuth pixel %d", i)
	}
}

func TestRenderSingleCentralVoxel(t *testing.T) {
	cfg := optics.Default() // 11×11×11, one micro-lens
	cfg.PixelsPerML = 11
	cfg.NVoxelsPerML = 11

	vol, err := volume.FromPreset("single_voxel", cfg.Shape(), volume.Params{
		DeltaN: 0.05,
		Axis:   r3.Vec{X: 1},
	})
	require.NoError(t, err)

	res, err := parallelEngine(cfg).Render(vol, Options{})
	require.NoError(t, err)

	// Only the axial ray through the center picks up retardance, with
	// the optic axis along +x reading as azimuth zero.
	want := 0.05 * 2 * math.Pi / cfg.WavelengthUm
	require.InDelta(t, want, res.Retardance.At(5, 5), 1e-9)
	require.Zero(t, res.Azimuth.At(5, 5))
	for i := 0; i < 11; i++ {
		for j := 0; j < 11; j++ {
			if i == 5 && j == 5 {
				continue
			}
			require.Zero(t, res.Retardance.At(i, j), "pixel (%d,%d)", i, j)
			require.Zero(t, res.Azimuth.At(i, j), "pixel (%d,%d)", i, j)
		}
	}
}

func TestRenderSingleLensMatchesDirectAccumulation(t *testing.T) {
	cfg := optics.Default()
	cfg.PixelsPerML = 7
	vol, err := volume.FromPreset("random", cfg.Shape(), volume.Params{Seed: 3})
	require.NoError(t, err)

	rs := geometry.Parallel(cfg.FanSpec())
	res, err := NewWithFan(cfg, rs).Render(vol, Options{})
	require.NoError(t, err)

	acc, err := Accumulate(rs, vol, Retarder{WavelengthUm: cfg.WavelengthUm}, 0, 0)
	require.NoError(t, err)
	for r := 0; r < rs.NumRays(); r++ {
		i, j := int(rs.PixelI[r]), int(rs.PixelJ[r])
		ret, az := jones.RetAzim(acc[r])
		require.Equal(t, ret, res.Retardance.At(i, j), "pixel (%d,%d)", i, j)
		require.Equal(t, az, res.Azimuth.At(i, j), "pixel (%d,%d)", i, j)
	}
}

func TestRenderTilesShiftThePattern(t *testing.T) {
	cfg := optics.Default()
	cfg.NMicroLenses = 3
	cfg.NVoxelsPerML = 3
	cfg.PixelsPerML = 5

	vol, err := volume.FromPreset("single_voxel", cfg.Shape(), volume.Params{
		DeltaN: 0.05,
		Axis:   r3.Vec{X: 1},
	})
	require.NoError(t, err)

	res, err := parallelEngine(cfg).Render(vol, Options{})
	require.NoError(t, err)

	// The central lens images the central voxel at its tile center; the
	// eight shifted lenses sample columns three voxels away and stay dark.
	require.Equal(t, 15, res.Retardance.W)
	want := 0.05 * 2 * math.Pi / cfg.WavelengthUm
	for i := 0; i < 15; i++ {
		for j := 0; j < 15; j++ {
			if i == 7 && j == 7 {
				require.InDelta(t, want, res.Retardance.At(i, j), 1e-9)
				continue
			}
			require.Zero(t, res.Retardance.At(i, j), "pixel (%d,%d)", i, j)
		}
	}
}

func TestRenderExecutorsAndTileWorkersAgree(t *testing.T) {
	cfg := optics.Default()
	cfg.NMicroLenses = 3
	cfg.NVoxelsPerML = 3
	cfg.PixelsPerML = 9
	vol, err := volume.FromPreset("random", cfg.Shape(), volume.Params{Seed: 11})
	require.NoError(t, err)

	rs := geometry.Parallel(cfg.FanSpec())

	serial, err := NewWithFan(cfg, rs).Render(vol, Options{})
	require.NoError(t, err)

	eng := NewWithFan(cfg, rs)
	eng.Exec = Parallel{Workers: 4}
	parallel, err := eng.Render(vol, Options{TileWorkers: 4})
	require.NoError(t, err)

	require.Equal(t, serial.Retardance, parallel.Retardance)
	require.Equal(t, serial.Azimuth, parallel.Azimuth)
}

func TestRenderIntensityFrames(t *testing.T) {
	cfg := optics.Default()
	cfg.PixelsPerML = 5

	res, err := parallelEngine(cfg).Render(volume.New(cfg.Shape()), Options{Intensity: true})
	require.NoError(t, err)
	require.Len(t, res.Intensity, 5)

	names := []string{"ext", "0", "45", "90", "135"}
	for k, fr := range res.Intensity {
		require.Equal(t, names[k], fr.Name)
	}

	// Empty field: the extinction frame is dark and the four swing
	// frames leak sin²(π·swing) each.
	leak := math.Pow(math.Sin(math.Pi*cfg.PolarizerSwing), 2)
	require.InDelta(t, 0, res.Intensity[0].Image.At(2, 2), 1e-20)
	for _, fr := range res.Intensity[1:] {
		require.InDelta(t, leak, fr.Image.At(2, 2), 1e-12, "frame %s", fr.Name)
	}
}

func TestRenderIntensityRespondsToBirefringence(t *testing.T) {
	cfg := optics.Default()
	cfg.PixelsPerML = 5
	cfg.NVoxelsPerML = 11

	vol, err := volume.FromPreset("single_voxel", cfg.Shape(), volume.Params{
		DeltaN: 0.05,
		Axis:   r3.Vec{X: 1},
	})
	require.NoError(t, err)

	rs := geometry.Parallel(cfg.FanSpec())
	res, err := NewWithFan(cfg, rs).Render(vol, Options{Intensity: true})
	require.NoError(t, err)

	// The central pixel's ray crosses the retarding voxel: its extinction
	// intensity rises above the dark background.
	require.Greater(t, res.Intensity[0].Image.At(2, 2), 1e-4)
	require.InDelta(t, 0, res.Intensity[0].Image.At(0, 0), 1e-20)
}
