package jones

import (
	"math"

	"github.com/soniakeys/unit"
)

// LinearPolarizer returns the projector onto linearly polarized light at
// angle theta from horizontal.
func LinearPolarizer(theta unit.Angle) Matrix {
	c, s := theta.Cos(), theta.Sin()
	return Matrix{
		{complex(c*c, 0), complex(s*c, 0)},
		{complex(s*c, 0), complex(s*s, 0)},
	}
}

// QuarterWavePlate returns a retarder with a quarter wave of retardance
// and fast axis at theta.
func QuarterWavePlate(theta unit.Angle) Matrix {
	return Retarder(math.Pi/2, theta.Rad())
}

// HalfWavePlate returns a retarder with half a wave of retardance and
// fast axis at theta.
func HalfWavePlate(theta unit.Angle) Matrix {
	return Retarder(math.Pi, theta.Rad())
}

// Rotator rotates the polarization plane by gamma.
func Rotator(gamma unit.Angle) Matrix {
	c, s := gamma.Cos(), gamma.Sin()
	return Matrix{
		{complex(c, 0), complex(-s, 0)},
		{complex(s, 0), complex(c, 0)},
	}
}

// LeftCircularPolarizer returns the projector onto the state (1, i)/√2.
func LeftCircularPolarizer() Matrix {
	return Matrix{
		{0.5, complex(0, -0.5)},
		{complex(0, 0.5), 0.5},
	}
}

// RightCircularPolarizer returns the projector onto the state (1, -i)/√2.
func RightCircularPolarizer() Matrix {
	return Matrix{
		{0.5, complex(0, 0.5)},
		{complex(0, -0.5), 0.5},
	}
}

// UniversalCompensator models the LC-PolScope compensator: light passes
// a variable retarder retA with fast axis at 45 degrees, then a variable
// retarder retB with horizontal fast axis. Retardances are in radians.
// At the extinction setting (π/2, π) it turns horizontal light into the
// state a left circular analyzer blocks completely.
func UniversalCompensator(retA, retB float64) Matrix {
	return Retarder(retB, 0).Mul(Retarder(retA, math.Pi/4))
}

// CompensatorSetting is one frame of the five-frame PolScope sequence.
type CompensatorSetting struct {
	Name       string
	RetA, RetB float64
}

// PolscopeSequence returns the five universal-compensator settings used
// to acquire a PolScope intensity stack with the given swing, expressed
// as a fraction of a wave.
func PolscopeSequence(swing float64) [5]CompensatorSetting {
	quarter := math.Pi / 2
	half := math.Pi
	s := 2 * math.Pi * swing
	return [5]CompensatorSetting{
		{Name: "ext", RetA: quarter, RetB: half},
		{Name: "0", RetA: quarter, RetB: half + s},
		{Name: "45", RetA: quarter + s, RetB: half},
		{Name: "90", RetA: quarter, RetB: half - s},
		{Name: "135", RetA: quarter - s, RetB: half},
	}
}
