package jones

import (
	"math"
	"math/cmplx"
)

// RetAzimGrad backpropagates through RetAzim: given the upstream
// weights on the retardance and azimuth outputs it returns the gradient
// with respect to the matrix entries. Complex gradients use the real
// pair convention, Re(g) = ∂L/∂Re(z) and Im(g) = ∂L/∂Im(z), so that
// dL = Re(conj(g)·dz). At the points where RetAzim is not smooth
// (identity input, half-wave fold, vanishing transverse response) the
// gradient is zero.
func RetAzimGrad(m Matrix, dRet, dAzim float64) Matrix {
	t := m.Trace()
	d := m[0][0] - m[1][1]
	o := m[0][1] + m[1][0]
	q := m[0][1] - m[1][0]

	s := math.Sqrt(abs2(d) + abs2(o) + abs2(q))
	at := cmplx.Abs(t)

	var gT, gD, gO, gQ complex128

	if dRet != 0 {
		if r2 := s*s + at*at; r2 > 0 {
			if s > 0 {
				k := complex(dRet*2*at/(r2*s), 0)
				gD += k * d
				gO += k * o
				gQ += k * q
			}
			if at > 0 {
				gT += complex(-dRet*2*s/(r2*at), 0) * t
			}
		}
	}

	if dAzim != 0 {
		x := imag(d * cmplx.Conj(t))
		y := imag(o * cmplx.Conj(t))
		if den := x*x + y*y; den > 0 {
			w := dAzim / (2 * den)
			it := complex(0, 1) * t
			gO += complex(w*x, 0) * it
			gD += complex(-w*y, 0) * it
			gT += complex(0, -w) * (complex(x, 0)*o - complex(y, 0)*d)
		}
	}

	return Matrix{
		{gT + gD, gO + gQ},
		{gO - gQ, gT - gD},
	}
}
