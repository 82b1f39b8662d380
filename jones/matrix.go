// Package jones implements 2x2 complex Jones calculus: polarization
// transforms, linear retarders, optical elements, and the retardance and
// azimuth observables extracted from an accumulated transform.
package jones

import "math/cmplx"

// Matrix is a 2x2 complex polarization transform, row-major.
type Matrix [2][2]complex128

// Vector holds the two complex field components of a polarization state.
type Vector [2]complex128

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{{1, 0}, {0, 1}}
}

// Mul returns the matrix product m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	return Matrix{
		{m[0][0]*o[0][0] + m[0][1]*o[1][0], m[0][0]*o[0][1] + m[0][1]*o[1][1]},
		{m[1][0]*o[0][0] + m[1][1]*o[1][0], m[1][0]*o[0][1] + m[1][1]*o[1][1]},
	}
}

// MulVec returns m·v.
func (m Matrix) MulVec(v Vector) Vector {
	return Vector{
		m[0][0]*v[0] + m[0][1]*v[1],
		m[1][0]*v[0] + m[1][1]*v[1],
	}
}

// Scale returns m with every entry multiplied by s.
func (m Matrix) Scale(s complex128) Matrix {
	return Matrix{
		{s * m[0][0], s * m[0][1]},
		{s * m[1][0], s * m[1][1]},
	}
}

// ConjTranspose returns the Hermitian adjoint of m.
func (m Matrix) ConjTranspose() Matrix {
	return Matrix{
		{cmplx.Conj(m[0][0]), cmplx.Conj(m[1][0])},
		{cmplx.Conj(m[0][1]), cmplx.Conj(m[1][1])},
	}
}

// Trace returns m[0][0] + m[1][1].
func (m Matrix) Trace() complex128 {
	return m[0][0] + m[1][1]
}

// Det returns the determinant of m.
func (m Matrix) Det() complex128 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

// Intensity returns |v|², the detectable power of the state.
func (v Vector) Intensity() float64 {
	return abs2(v[0]) + abs2(v[1])
}

func abs2(z complex128) float64 {
	re, im := real(z), imag(z)
	return re*re + im*im
}
