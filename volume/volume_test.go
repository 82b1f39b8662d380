package volume

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestShapeCenter(t *testing.T) {
	z, y, x := Shape{Z: 11, Y: 11, X: 11}.Center()
	require.Equal(t, 5, z)
	require.Equal(t, 5, y)
	require.Equal(t, 5, x)

	z, y, x = Shape{Z: 4, Y: 6, X: 8}.Center()
	require.Equal(t, 2, z)
	require.Equal(t, 3, y)
	require.Equal(t, 4, x)
}

func TestSetVoxelAccessors(t *testing.T) {
	v := New(Shape{Z: 3, Y: 4, X: 5})
	axis := r3.Vec{X: 0.6, Y: 0.8, Z: 0}
	v.SetVoxel(1, 2, 3, -0.05, axis)

	require.Equal(t, -0.05, v.DeltaNAt(1, 2, 3))
	require.Equal(t, axis, v.AxisAt(1, 2, 3))

	i := v.FlatIndex(1, 2, 3)
	require.Equal(t, -0.05, v.DeltaNFlat(i))
	require.Equal(t, axis, v.AxisFlat(i))

	// Neighbors stay untouched.
	require.Zero(t, v.DeltaNAt(1, 2, 2))
	require.Zero(t, v.DeltaNAt(0, 2, 3))
}

func TestDeltaNAndOpticAxisReturnCopies(t *testing.T) {
	v := New(Shape{Z: 2, Y: 2, X: 2})
	v.SetVoxel(0, 0, 0, 0.01, r3.Vec{X: 1})

	dn := v.DeltaN()
	ax := v.OpticAxis()
	dn[0] = 99
	ax[0] = 99

	require.Equal(t, 0.01, v.DeltaNAt(0, 0, 0))
	require.Equal(t, r3.Vec{X: 1}, v.AxisAt(0, 0, 0))
}

func TestNewFromDataValidates(t *testing.T) {
	shape := Shape{Z: 2, Y: 2, X: 2}

	_, err := NewFromData(shape, make([]float64, 7), make([]float64, 24))
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewFromData(shape, make([]float64, 8), make([]float64, 23))
	require.ErrorIs(t, err, ErrShapeMismatch)

	v, err := NewFromData(shape, make([]float64, 8), make([]float64, 24))
	require.NoError(t, err)
	require.Equal(t, shape, v.Shape())
}

func TestFlatIndexLayout(t *testing.T) {
	v := New(Shape{Z: 2, Y: 3, X: 4})
	require.Equal(t, 0, v.FlatIndex(0, 0, 0))
	require.Equal(t, 1, v.FlatIndex(0, 0, 1))
	require.Equal(t, 4, v.FlatIndex(0, 1, 0))
	require.Equal(t, 12, v.FlatIndex(1, 0, 0))
	require.Equal(t, 23, v.FlatIndex(1, 2, 3))
}
