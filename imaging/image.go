// Package imaging holds the float rasters the renderer produces and
// writers for common interchange formats.
package imaging

import (
	"gonum.org/v1/gonum/floats"
)

// Image is a dense float64 raster, row major with (0,0) top left.
// Row index comes first in the accessors.
type Image struct {
	W, H int
	Pix  []float64
}

func NewImage(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]float64, w*h)}
}

func (im *Image) At(row, col int) float64 { return im.Pix[row*im.W+col] }

func (im *Image) Set(row, col int, v float64) { im.Pix[row*im.W+col] = v }

// Range returns the smallest and largest sample.
func (im *Image) Range() (lo, hi float64) {
	if len(im.Pix) == 0 {
		return 0, 0
	}
	return floats.Min(im.Pix), floats.Max(im.Pix)
}

// Fill sets every sample to v.
func (im *Image) Fill(v float64) {
	for i := range im.Pix {
		im.Pix[i] = v
	}
}
