package jones

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

func requireMatrixNear(t *testing.T, want, got Matrix, tol float64) {
	t.Helper()
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			require.InDelta(t, real(want[r][c]), real(got[r][c]), tol,
				"entry (%d,%d) real part", r, c)
			require.InDelta(t, imag(want[r][c]), imag(got[r][c]), tol,
				"entry (%d,%d) imag part", r, c)
		}
	}
}

func TestIdentityIsNeutral(t *testing.T) {
	m := Retarder(0.8, 0.3)
	requireMatrixNear(t, m, Identity().Mul(m), 0)
	requireMatrixNear(t, m, m.Mul(Identity()), 0)
}

func TestMulOrderMatters(t *testing.T) {
	a := Retarder(1.1, 0.2)
	b := Retarder(0.7, 1.3)

	ab := a.Mul(b)
	ba := b.Mul(a)

	var diff float64
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			diff += cmplx.Abs(ab[r][c] - ba[r][c])
		}
	}
	require.Greater(t, diff, 1e-3, "retarders with distinct axes must not commute")

	// Same fast axis: the two factors share an eigenbasis and commute.
	c1 := Retarder(1.1, 0.4)
	c2 := Retarder(0.7, 0.4)
	requireMatrixNear(t, c1.Mul(c2), c2.Mul(c1), 1e-12)
}

func TestConjTransposeInvertsUnitary(t *testing.T) {
	m := Retarder(2.1, 0.9)
	requireMatrixNear(t, Identity(), m.ConjTranspose().Mul(m), 1e-12)
	requireMatrixNear(t, Identity(), m.Mul(m.ConjTranspose()), 1e-12)
}

func TestTraceAndDet(t *testing.T) {
	m := Matrix{{1 + 2i, 3}, {4i, 5}}
	require.Equal(t, complex128(6+2i), m.Trace())
	require.Equal(t, (1+2i)*5-3*(4i), m.Det())
}

func TestMulVecIntensity(t *testing.T) {
	horizontal := Vector{1, 0}
	require.InDelta(t, 1.0, horizontal.Intensity(), 1e-15)

	// A polarizer at 45 degrees passes half the power of horizontal light.
	out := Retarder(0, 0).MulVec(horizontal)
	require.InDelta(t, 1.0, out.Intensity(), 1e-15)

	diag := Matrix{{0.5, 0.5}, {0.5, 0.5}}.MulVec(horizontal)
	require.InDelta(t, 0.5, diag.Intensity(), 1e-15)
}

func TestScaleAppliesGlobalPhase(t *testing.T) {
	m := Retarder(1.3, 0.25)
	phase := cmplx.Exp(complex(0, 0.77))
	scaled := m.Scale(phase)
	require.InDelta(t, 1.0, cmplx.Abs(scaled.Det()), 1e-12)
	require.InDelta(t, cmplx.Abs(m.Trace()), cmplx.Abs(scaled.Trace()), 1e-12)
}

func TestDetOfRetarderIsUnimodular(t *testing.T) {
	for _, ret := range []float64{0, 0.3, 1.5, math.Pi - 0.1, math.Pi} {
		for _, az := range []float64{0, 0.4, 1.0, 2.9} {
			m := Retarder(ret, az)
			require.InDelta(t, 1.0, cmplx.Abs(m.Det()), 1e-12,
				"ret=%v az=%v", ret, az)
		}
	}
}
