package exam

import (
	"fmt"
	"math"
)

// weightEpsilon is the tolerance when comparing the rounded sum to 1.00.
const weightEpsilon = 0.001

// WeightSet is a proposed weight triple for a class. Weights are fractions
// with two-decimal precision; each must lie strictly inside (0,1) and the
// three must sum to 1.00 within weightEpsilon.
type WeightSet struct {
	Theory     float64 `json:"theory"`
	Simulation float64 `json:"simulation"`
	Practical  float64 `json:"practical"`
}

func (w WeightSet) Sum() float64 {
	return w.Theory + w.Simulation + w.Practical
}

func (w WeightSet) For(t PartialType) float64 {
	switch t {
	case PartialTheory:
		return w.Theory
	case PartialSimulation:
		return w.Simulation
	case PartialPractical:
		return w.Practical
	}
	return 0
}

// Validate rejects out-of-range values before checking the sum. The sum is
// rounded to two decimals first: naive addition of decimals like 0.1+0.2
// leaves representable-but-wrong remainders that would fail a raw compare.
func (w WeightSet) Validate() error {
	for _, t := range PartialTypes {
		v := w.For(t)
		if v <= 0 || v >= 1 {
			return &WeightDistributionError{
				Rule:   "out_of_range",
				Detail: fmt.Sprintf("%s weight %.2f must be strictly between 0 and 1", t, v),
			}
		}
	}
	if sum := Round2(w.Sum()); math.Abs(sum-1.0) > weightEpsilon {
		return &WeightDistributionError{
			Rule:   "sum_mismatch",
			Detail: fmt.Sprintf("weights sum to %.2f, must sum to 1.00", sum),
		}
	}
	return nil
}

// Round2 rounds to two decimal places, the precision of every stored score
// and weight in the engine.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
