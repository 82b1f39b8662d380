package imaging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageAccessorsAreRowMajor(t *testing.T) {
	im := NewImage(3, 2)
	im.Set(1, 2, 7.5)
	require.Equal(t, 7.5, im.At(1, 2))
	require.Equal(t, 7.5, im.Pix[1*3+2])
}

func TestImageRange(t *testing.T) {
	im := NewImage(2, 2)
	im.Pix = []float64{0.5, -1.25, 3, 0}
	lo, hi := im.Range()
	require.Equal(t, -1.25, lo)
	require.Equal(t, 3.0, hi)

	empty := NewImage(0, 0)
	lo, hi = empty.Range()
	require.Zero(t, lo)
	require.Zero(t, hi)
}

func TestImageFill(t *testing.T) {
	im := NewImage(2, 3)
	im.Fill(0.25)
	for _, v := range im.Pix {
		require.Equal(t, 0.25, v)
	}
}
