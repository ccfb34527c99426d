package impedance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpDecay(t *testing.T) {
	const max = 1000.0

	assert.InDelta(t, max, ExpDecay(0, 500, max), 1e-9)

	prev := max
	for _, d := range []float64{1, 10, 100, 500, 1000, 5000} {
		v := ExpDecay(d, 500, max)
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, prev)
		prev = v
	}

	// exact form: max * exp(-d/lambda)
	assert.InDelta(t, max*math.Exp(-250.0/500.0), ExpDecay(250, 500, max), 1e-9)
}

func TestPropDecay(t *testing.T) {
	const max = 1000.0

	assert.InDelta(t, max, PropDecay(0, 500, max), 1e-9)

	prev := max
	for _, d := range []float64{1, 10, 100, 500, 1000, 5000} {
		v := PropDecay(d, 500, max)
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, prev)
		prev = v
	}

	// exact form: max * k / (k + d)
	assert.InDelta(t, max*500.0/(500.0+250.0), PropDecay(250, 500, max), 1e-9)
}

func TestDecayForParams(t *testing.T) {
	exp, err := DecayForParams(Params{DeclineType: DeclineExp, ExpDecline: ExpParams{LambdaDecay: 500}}, 100)
	require.NoError(t, err)
	assert.InDelta(t, 100, exp(0), 1e-9)

	prop, err := DecayForParams(Params{DeclineType: DeclineProp, PropDecline: PropParams{KValue: 500}}, 100)
	require.NoError(t, err)
	assert.InDelta(t, 50, prop(500), 1e-9)

	_, err = DecayForParams(Params{DeclineType: "linear"}, 100)
	require.Error(t, err)

	_, err = DecayForParams(Params{DeclineType: DeclineExp}, 100)
	require.Error(t, err)
}

func TestAccumulate_Idempotent(t *testing.T) {
	accum := []float64{1, 5, 3}
	effect := []float64{2, 4, 6}

	Accumulate(accum, effect)
	once := append([]float64(nil), accum...)

	Accumulate(accum, effect)
	assert.Equal(t, once, accum)
}

func TestAccumulate_TwoStressors(t *testing.T) {
	roads := []float64{10, 80, 30, 0}
	rail := []float64{50, 20, 30, 5}

	accum := make([]float64, 4)
	Accumulate(accum, roads)
	Accumulate(accum, rail)

	assert.Equal(t, []float64{50, 80, 30, 5}, accum)
}
