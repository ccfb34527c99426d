package impedance

import (
	"math"

	"github.com/rotisserie/eris"
)

// DecayFunc maps a distance in georeferenced units to an edge-effect value.
type DecayFunc func(distance float64) float64

// ExpDecay is the exponential decline: impedanceMax * exp(-d/lambda).
func ExpDecay(distance, lambdaDecay, impedanceMax float64) float64 {
	return impedanceMax * math.Exp(-distance/lambdaDecay)
}

// PropDecay is the proportional decline: impedanceMax * k / (k + d).
func PropDecay(distance, kValue, impedanceMax float64) float64 {
	return impedanceMax * kValue / (kValue + distance)
}

// DecayForParams binds a stressor's configured decay model to a function of
// distance.
func DecayForParams(p Params, impedanceMax float64) (DecayFunc, error) {
	switch p.DeclineType {
	case DeclineExp:
		if p.ExpDecline.LambdaDecay <= 0 {
			return nil, eris.Errorf("impedance: lambda_decay must be positive, got %v", p.ExpDecline.LambdaDecay)
		}
		lambda := p.ExpDecline.LambdaDecay
		return func(d float64) float64 { return ExpDecay(d, lambda, impedanceMax) }, nil
	case DeclineProp:
		if p.PropDecline.KValue <= 0 {
			return nil, eris.Errorf("impedance: k_value must be positive, got %v", p.PropDecline.KValue)
		}
		k := p.PropDecline.KValue
		return func(d float64) float64 { return PropDecay(d, k, impedanceMax) }, nil
	default:
		return nil, eris.Errorf("impedance: unknown decline_type %q", p.DeclineType)
	}
}

// Accumulate folds an effect block into the running accumulator with a
// cell-wise maximum. Both slices must have equal length.
func Accumulate(accum, effect []float64) {
	for i, v := range effect {
		if v > accum[i] {
			accum[i] = v
		}
	}
}
