package raytrace

import (
	"github.com/makzator/forward-model/jones"
	"github.com/makzator/forward-model/optics"
)

// polscopeInputs precomputes the field entering the sample for every
// compensator setting: unit horizontal light through the polarizer and
// the universal compensator. The per-ray work is then one matrix-vector
// product per frame.
func polscopeInputs(cfg optics.Config) ([]jones.CompensatorSetting, []jones.Vector) {
	pol := cfg.Polarizer.ToJones()
	e0 := jones.Vector{1, 0}
	settings := jones.PolscopeSequence(cfg.PolarizerSwing)
	ins := make([]jones.Vector, len(settings))
	for k, st := range settings {
		uc := jones.UniversalCompensator(st.RetA, st.RetB)
		ins[k] = uc.MulVec(pol.MulVec(e0))
	}
	return settings[:], ins
}
