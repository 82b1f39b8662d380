// Package volume stores the discretized birefringent medium: a dense
// [4, Dz, Dy, Dx] grid holding a signed birefringence and an optic-axis
// unit vector per voxel.
package volume

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Shape is the voxel grid extent. Z is the optical (propagation) axis;
// X varies fastest in memory.
type Shape struct {
	Z, Y, X int
}

// Count returns the number of voxels.
func (s Shape) Count() int { return s.Z * s.Y * s.X }

// Center returns the integer center voxel, rounding down.
func (s Shape) Center() (z, y, x int) { return s.Z / 2, s.Y / 2, s.X / 2 }

func (s Shape) String() string { return fmt.Sprintf("%dx%dx%d", s.Z, s.Y, s.X) }

func (s Shape) valid() bool { return s.Z > 0 && s.Y > 0 && s.X > 0 }

// Volume is the birefringent medium. Channel 0 holds the signed
// birefringence Δn (0 means isotropic); channels 1-3 hold the optic-axis
// x, y and z components. Wherever Δn is nonzero the axis must be unit
// length; the axis of an isotropic voxel is never read.
//
// The four channels live in one flat slice, each Count() long, so flat
// voxel indices address all channels with a single offset.
type Volume struct {
	shape Shape
	data  []float64
}

// New returns a zeroed (fully isotropic) volume.
func New(shape Shape) *Volume {
	return &Volume{shape: shape, data: make([]float64, 4*shape.Count())}
}

// NewFromData builds a volume from a Δn slice of length Count() and an
// optic-axis slice of length 3*Count() laid out [3, Dz, Dy, Dx]. Both are
// copied.
func NewFromData(shape Shape, deltaN, opticAxis []float64) (*Volume, error) {
	n := shape.Count()
	if !shape.valid() {
		return nil, fmt.Errorf("%w: invalid shape %v", ErrShapeMismatch, shape)
	}
	if len(deltaN) != n {
		return nil, fmt.Errorf("%w: delta_n has %d values, shape %v needs %d",
			ErrShapeMismatch, len(deltaN), shape, n)
	}
	if len(opticAxis) != 3*n {
		return nil, fmt.Errorf("%w: optic_axis has %d values, shape %v needs %d",
			ErrShapeMismatch, len(opticAxis), shape, 3*n)
	}
	v := New(shape)
	copy(v.data[:n], deltaN)
	copy(v.data[n:], opticAxis)
	return v, nil
}

// Shape returns the grid extent.
func (v *Volume) Shape() Shape { return v.shape }

// FlatIndex maps (z, y, x) to the flat voxel index.
func (v *Volume) FlatIndex(z, y, x int) int {
	return (z*v.shape.Y+y)*v.shape.X + x
}

// DeltaNAt returns Δn at (z, y, x).
func (v *Volume) DeltaNAt(z, y, x int) float64 {
	return v.data[v.FlatIndex(z, y, x)]
}

// AxisAt returns the optic axis at (z, y, x).
func (v *Volume) AxisAt(z, y, x int) r3.Vec {
	return v.AxisFlat(v.FlatIndex(z, y, x))
}

// DeltaNFlat returns Δn at a flat voxel index.
func (v *Volume) DeltaNFlat(i int) float64 { return v.data[i] }

// AxisFlat returns the optic axis at a flat voxel index.
func (v *Volume) AxisFlat(i int) r3.Vec {
	n := v.shape.Count()
	return r3.Vec{X: v.data[n+i], Y: v.data[2*n+i], Z: v.data[3*n+i]}
}

// SetVoxel stores Δn and the optic axis at (z, y, x). The axis is stored
// as given; callers keep it unit length wherever dn is nonzero.
func (v *Volume) SetVoxel(z, y, x int, dn float64, axis r3.Vec) {
	i := v.FlatIndex(z, y, x)
	n := v.shape.Count()
	v.data[i] = dn
	v.data[n+i] = axis.X
	v.data[2*n+i] = axis.Y
	v.data[3*n+i] = axis.Z
}

// DeltaN returns a copy of the birefringence channel, [Dz, Dy, Dx] flat.
func (v *Volume) DeltaN() []float64 {
	n := v.shape.Count()
	out := make([]float64, n)
	copy(out, v.data[:n])
	return out
}

// OpticAxis returns a copy of the axis channels, [3, Dz, Dy, Dx] flat.
func (v *Volume) OpticAxis() []float64 {
	n := v.shape.Count()
	out := make([]float64, 3*n)
	copy(out, v.data[n:])
	return out
}
