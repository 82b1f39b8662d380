// Package optics carries the optical train configuration shared by the
// geometry and tracing layers.
package optics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/soniakeys/unit"

	"github.com/makzator/forward-model/geometry"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/volume"
)

// ErrInvalidConfig wraps every constraint violation Validate finds.
var ErrInvalidConfig = errors.New("optics: invalid config")

// JonesSpec is a 2×2 complex matrix spelled out as [re, im] pairs so it
// can live in a JSON config file.
type JonesSpec [2][2][2]float64

// ToJones converts the pair layout back into a matrix.
func (s JonesSpec) ToJones() jones.Matrix {
	var m jones.Matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m[i][j] = complex(s[i][j][0], s[i][j][1])
		}
	}
	return m
}

// FromJones converts a matrix into the JSON pair layout.
func FromJones(m jones.Matrix) JonesSpec {
	var s JonesSpec
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			s[i][j] = [2]float64{real(m[i][j]), imag(m[i][j])}
		}
	}
	return s
}

// Config describes the optical train of the simulated light-field
// microscope. Lengths are in µm.
type Config struct {
	VolumeShape      [3]int    `json:"volume_shape"` // (z, y, x) voxels
	AxialVoxelSizeUm float64   `json:"axial_voxel_size_um"`
	WavelengthUm     float64   `json:"wavelength_um"`
	MObj             float64   `json:"M_obj"`
	NAObj            float64   `json:"na_obj"`
	NMedium          float64   `json:"n_medium"`
	NMicroLenses     int       `json:"n_micro_lenses"`
	NVoxelsPerML     int       `json:"n_voxels_per_ml"`
	PixelsPerML      int       `json:"pixels_per_ml"`
	CameraPixPitchUm float64   `json:"camera_pix_pitch_um"`
	PolarizerSwing   float64   `json:"polarizer_swing"`
	Polarizer        JonesSpec `json:"polarizer"`
	Analyzer         JonesSpec `json:"analyzer"`
}

// Default returns the 60x/1.2NA water-immersion setup the CLIs fall
// back to when no config file is given.
func Default() Config {
	return Config{
		VolumeShape:      [3]int{11, 11, 11},
		AxialVoxelSizeUm: 1.0,
		WavelengthUm:     0.550,
		MObj:             60,
		NAObj:            1.2,
		NMedium:          1.35,
		NMicroLenses:     1,
		NVoxelsPerML:     1,
		PixelsPerML:      17,
		CameraPixPitchUm: 6.5,
		PolarizerSwing:   0.03,
		Polarizer:        FromJones(jones.LinearPolarizer(0)),
		Analyzer:         FromJones(jones.LeftCircularPolarizer()),
	}
}

// Load reads a JSON config file on top of the defaults, so partial
// files only need the fields they change.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every constraint the configuration breaks.
func (c *Config) Validate() error {
	var bad []string
	if c.VolumeShape[0] <= 0 || c.VolumeShape[1] <= 0 || c.VolumeShape[2] <= 0 {
		bad = append(bad, "volume_shape must be positive")
	}
	if c.AxialVoxelSizeUm <= 0 {
		bad = append(bad, "axial_voxel_size_um must be positive")
	}
	if c.WavelengthUm <= 0 {
		bad = append(bad, "wavelength_um must be positive")
	}
	if c.NAObj <= 0 || c.NMedium <= 0 {
		bad = append(bad, "na_obj and n_medium must be positive")
	} else if c.NAObj > c.NMedium {
		bad = append(bad, fmt.Sprintf("na_obj %.3g exceeds n_medium %.3g, the cone angle is undefined", c.NAObj, c.NMedium))
	}
	if c.NMicroLenses <= 0 {
		bad = append(bad, "n_micro_lenses must be positive")
	} else if c.NMicroLenses%2 == 0 {
		bad = append(bad, fmt.Sprintf("n_micro_lenses %d must be odd so the array has a central lens", c.NMicroLenses))
	}
	if c.NVoxelsPerML <= 0 {
		bad = append(bad, "n_voxels_per_ml must be positive")
	}
	if c.PixelsPerML <= 0 {
		bad = append(bad, "pixels_per_ml must be positive")
	}
	if c.PolarizerSwing < 0 || c.PolarizerSwing >= 0.5 {
		bad = append(bad, "polarizer_swing must lie in [0, 0.5)")
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(bad, "; "))
	}
	return nil
}

// Shape returns the volume shape as the volume package sees it.
func (c *Config) Shape() volume.Shape {
	return volume.Shape{Z: c.VolumeShape[0], Y: c.VolumeShape[1], X: c.VolumeShape[2]}
}

// MaxConeAngle returns the half-angle of the illumination cone inside
// the medium.
func (c *Config) MaxConeAngle() unit.Angle {
	s := c.NAObj / c.NMedium
	if s > 1 {
		s = 1
	}
	return unit.Angle(math.Asin(s))
}

// FanSpec collects the fields the ray fan depends on.
func (c *Config) FanSpec() geometry.FanSpec {
	return geometry.FanSpec{
		Shape:           c.Shape(),
		PixelsPerML:     c.PixelsPerML,
		FootprintVoxels: c.NVoxelsPerML,
		NA:              c.NAObj,
		NMedium:         c.NMedium,
		VoxelSizeUm:     c.AxialVoxelSizeUm,
	}
}

// Fingerprint keys the ray-fan cache: two configs with equal
// fingerprints trace identical fans.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("%dx%dx%d/p%d/f%d/na%.6g/n%.6g/vs%.6g",
		c.VolumeShape[0], c.VolumeShape[1], c.VolumeShape[2],
		c.PixelsPerML, c.NVoxelsPerML, c.NAObj, c.NMedium, c.AxialVoxelSizeUm)
}
