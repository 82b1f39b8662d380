package imaging

import (
	"image"
	"image/png"
	"os"
)

// WritePNG16 stores im as a 16-bit grayscale PNG, mapping [lo, hi]
// onto the sample range.
func WritePNG16(path string, im *Image, lo, hi float64) error {
	return writePNG(path, Quantize(im, lo, hi))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(f, img)
}
