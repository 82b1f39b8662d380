package raytrace

import (
	"fmt"

	"github.com/makzator/forward-model/imaging"
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/volume"
)

// IntensityFrame is one simulated PolScope acquisition.
type IntensityFrame struct {
	Name  string
	Image *imaging.Image
}

// Result bundles the sensor images of one render.
type Result struct {
	Retardance *imaging.Image
	Azimuth    *imaging.Image
	Intensity  []IntensityFrame

	shape volume.Shape
	tapes []*Tape
}

// Backward propagates per-pixel weights on the retardance and azimuth
// images back to the volume. Render must have run with
// Options.Gradients set.
func (res *Result) Backward(dRet, dAzim *imaging.Image) (*VolumeGrad, error) {
	if len(res.tapes) == 0 {
		return nil, ErrNoGradients
	}
	if dRet.W != res.Retardance.W || dRet.H != res.Retardance.H ||
		dAzim.W != res.Azimuth.W || dAzim.H != res.Azimuth.H {
		return nil, fmt.Errorf("raytrace: weight images %dx%d and %dx%d do not match render %dx%d",
			dRet.W, dRet.H, dAzim.W, dAzim.H, res.Retardance.W, res.Retardance.H)
	}

	g := newVolumeGrad(res.shape)
	var prefixes []jones.Matrix
	for _, tp := range res.tapes {
		if n := tp.rs.MaxSegments() + 1; n > len(prefixes) {
			prefixes = make([]jones.Matrix, n)
		}
		tp.backward(dRet, dAzim, g, prefixes)
	}
	return g, nil
}
