package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/makzator/forward-model/volume"
)

func TestMarchAxialColumn(t *testing.T) {
	shape := volume.Shape{Z: 4, Y: 5, X: 6}
	segs := March(r3.Vec{X: 2.5, Y: 3.5, Z: -1}, r3.Vec{Z: 1}, shape, 2.0)

	require.Len(t, segs, 4)
	for z, s := range segs {
		require.Equal(t, int32((z*5+3)*6+2), s.Voxel)
		require.InDelta(t, 2.0, s.Len, 1e-9)
	}
}

func TestMarchMissesGrid(t *testing.T) {
	shape := volume.Shape{Z: 4, Y: 4, X: 4}

	require.Nil(t, March(r3.Vec{X: -5, Y: 2, Z: -1}, r3.Vec{Z: 1}, shape, 1.0))
	require.Nil(t, March(r3.Vec{X: 2, Y: 2, Z: 10}, r3.Vec{Z: 1}, shape, 1.0))
}

func TestMarchChordSumMatchesClip(t *testing.T) {
	shape := volume.Shape{Z: 8, Y: 8, X: 8}
	origin := r3.Vec{X: -0.3, Y: -0.7, Z: -1.1}
	dir := r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1})
	const voxelUm = 1.75

	tMin, tMax, ok := clipToBox(origin, dir, shape)
	require.True(t, ok)

	segs := March(origin, dir, shape, voxelUm)
	require.NotEmpty(t, segs)

	var sum float64
	for _, s := range segs {
		require.GreaterOrEqual(t, s.Voxel, int32(0))
		require.Less(t, s.Voxel, int32(shape.Count()))
		require.Greater(t, s.Len, 0.0)
		sum += s.Len
	}
	require.InDelta(t, (tMax-tMin)*voxelUm, sum, 1e-6)
}

func TestMarchObliqueStaysOrdered(t *testing.T) {
	shape := volume.Shape{Z: 6, Y: 3, X: 6}
	dir := r3.Unit(r3.Vec{X: 1, Z: 1})
	segs := March(r3.Vec{X: -0.5, Y: 1.5, Z: -0.5}, dir, shape, 1.0)

	require.NotEmpty(t, segs)
	// z never decreases along a +z ray and every crossing is at most one
	// voxel diagonal long.
	prevZ := int32(-1)
	for _, s := range segs {
		z := s.Voxel / int32(shape.Y*shape.X)
		require.GreaterOrEqual(t, z, prevZ)
		require.LessOrEqual(t, s.Len, math.Sqrt2+1e-9)
		prevZ = z
	}
}
