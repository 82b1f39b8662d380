package imaging

import (
	"image"
	"image/color"
	"os"

	"golang.org/x/image/tiff"
)

// Quantize maps samples in [lo, hi] onto the full 16-bit range,
// clamping anything outside it. A degenerate range yields zeros.
func Quantize(im *Image, lo, hi float64) *image.Gray16 {
	out := image.NewGray16(image.Rect(0, 0, im.W, im.H))
	scale := 0.0
	if hi > lo {
		scale = 65535 / (hi - lo)
	}
	for row := 0; row < im.H; row++ {
		for col := 0; col < im.W; col++ {
			v := (im.At(row, col) - lo) * scale
			if v < 0 {
				v = 0
			}
			if v > 65535 {
				v = 65535
			}
			out.SetGray16(col, row, color.Gray16{Y: uint16(v + 0.5)})
		}
	}
	return out
}

// WriteTIFF stores im as a deflate-compressed 16-bit grayscale TIFF,
// mapping [lo, hi] onto the sample range.
func WriteTIFF(path string, im *Image, lo, hi float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tiff.Encode(f, Quantize(im, lo, hi), &tiff.Options{
		Compression: tiff.Deflate,
		Predictor:   true,
	})
}

// ReadTIFF loads a grayscale TIFF back as floats in [0, 1].
func ReadTIFF(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := tiff.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	im := NewImage(b.Dx(), b.Dy())
	for row := 0; row < im.H; row++ {
		for col := 0; col < im.W; col++ {
			r, _, _, _ := src.At(b.Min.X+col, b.Min.Y+row).RGBA()
			im.Set(row, col, float64(r)/65535)
		}
	}
	return im, nil
}
