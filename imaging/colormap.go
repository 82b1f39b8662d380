package imaging

import (
	"image"
	"math"
)

// Composite renders retardance and azimuth as one color image, the
// usual birefringence view: azimuth picks the hue, with the half-turn
// orientation range spread over the full color circle, and retardance
// scaled by maxRet picks the brightness. Both rasters must share
// their geometry.
func Composite(ret, azim *Image, maxRet float64) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, ret.W, ret.H))
	for row := 0; row < ret.H; row++ {
		for col := 0; col < ret.W; col++ {
			hue := 360 * azim.At(row, col) / math.Pi
			val := 0.0
			if maxRet > 0 {
				val = clamp01(ret.At(row, col) / maxRet)
			}
			r, g, b := hsvToRGB(hue, 1, val)
			i := out.PixOffset(col, row)
			out.Pix[i+0] = to8bit(r)
			out.Pix[i+1] = to8bit(g)
			out.Pix[i+2] = to8bit(b)
			out.Pix[i+3] = 0xff
		}
	}
	return out
}

// WriteComposite writes the color composite as an 8-bit PNG.
func WriteComposite(path string, ret, azim *Image, maxRet float64) error {
	return writePNG(path, Composite(ret, azim, maxRet))
}

func hsvToRGB(h, s, v float64) (r, g, b float64) {
	if s <= 0 {
		return v, v, v
	}
	h = math.Mod(h, 360.0)
	if h < 0 {
		h += 360.0
	}
	h /= 60.0
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func to8bit(x float64) uint8 {
	return uint8(255*clamp01(x) + 0.5)
}
