package jones

import (
	"math"
	"math/cmplx"
)

// Retarder returns the Jones matrix of a linear retarder with retardance
// ret (radians of phase between fast and slow components) and fast axis
// oriented at angle az (radians, counterclockwise from horizontal).
func Retarder(ret, az float64) Matrix {
	c, s := math.Cos(ret/2), math.Sin(ret/2)
	c2, s2 := math.Cos(2*az), math.Sin(2*az)
	return Matrix{
		{complex(c, s*c2), complex(0, s*s2)},
		{complex(0, s*s2), complex(c, -s*c2)},
	}
}

// RetAzim extracts the two observables from an effective transform.
//
// Retardance is the absolute phase difference between the eigenvalues of
// m, folded into [0, π]. Azimuth is the fast-axis orientation in [0, π),
// measured against the conjugated trace so that a global phase on m
// cancels exactly. Transforms with no linear anisotropy (the identity,
// pure rotators, and the trace-free π-retardance point) report azimuth 0.
func RetAzim(m Matrix) (ret, az float64) {
	t := m.Trace()
	d := m[0][0] - m[1][1]
	o := m[0][1] + m[1][0]
	q := m[0][1] - m[1][0]

	s := math.Sqrt(abs2(d) + abs2(o) + abs2(q))
	ret = 2 * math.Atan2(s, cmplx.Abs(t))

	y := imag(o * cmplx.Conj(t))
	x := imag(d * cmplx.Conj(t))
	if x == 0 && y == 0 {
		return ret, 0
	}
	az = 0.5 * math.Atan2(y, x)
	if az < 0 {
		az += math.Pi
	}
	return ret, az
}
