package jones

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"
)

// numericGrad perturbs every real and imaginary part of m and finite
// differences wRet·ret + wAz·az.
func numericGrad(m Matrix, wRet, wAz float64) Matrix {
	const h = 1e-6
	loss := func(m Matrix) float64 {
		ret, az := RetAzim(m)
		return wRet*ret + wAz*az
	}
	var g Matrix
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			re := m
			re[i][j] += complex(h, 0)
			reM := m
			reM[i][j] -= complex(h, 0)
			im := m
			im[i][j] += complex(0, h)
			imM := m
			imM[i][j] -= complex(0, h)
			g[i][j] = complex(
				(loss(re)-loss(reM))/(2*h),
				(loss(im)-loss(imM))/(2*h),
			)
		}
	}
	return g
}

func TestRetAzimGradMatchesFiniteDifferences(t *testing.T) {
	cases := []struct {
		name string
		m    Matrix
	}{
		{"single retarder", Retarder(0.9, 0.7)},
		{"two retarders", Retarder(0.8, 0.5).Mul(Retarder(1.1, 1.2))},
		{"three retarders", Retarder(0.4, 0.3).Mul(Retarder(0.6, 1.0)).Mul(Retarder(0.5, 0.8))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, w := range [][2]float64{{1, 0}, {0, 1}, {0.7, -1.3}} {
				want := numericGrad(tc.m, w[0], w[1])
				got := RetAzimGrad(tc.m, w[0], w[1])
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						require.InDelta(t, real(want[i][j]), real(got[i][j]), 1e-5, "re entry %d%d weights %v", i, j, w)
						require.InDelta(t, imag(want[i][j]), imag(got[i][j]), 1e-5, "im entry %d%d weights %v", i, j, w)
					}
				}
			}
		})
	}
}

func TestRetAzimGradTransportsGlobalPhase(t *testing.T) {
	m := Retarder(0.8, 0.5).Mul(Retarder(1.1, 1.2))
	phase := cmplx.Exp(complex(0, 0.6))
	spun := m.Scale(phase)

	// The loss is phase invariant, so the gradient at the spun matrix is
	// the base gradient spun by the same phase.
	want := RetAzimGrad(m, 1, 0.5).Scale(phase)
	got := RetAzimGrad(spun, 1, 0.5)
	requireMatrixNear(t, want, got, 1e-10)
}

func TestRetAzimGradZeroAtDegenerateInputs(t *testing.T) {
	for _, m := range []Matrix{Identity(), {}} {
		g := RetAzimGrad(m, 1, 1)
		require.Equal(t, Matrix{}, g)
	}
}
