package impedance

// Decay model names as they appear in the impedance configuration file.
const (
	DeclineExp  = "exp_decline"
	DeclineProp = "prop_decline"
)

// Params is the decay parameter block written under each stressor alias in
// the impedance configuration. Types distinguishes stressor subtypes with
// different parameters (for example primary vs secondary roads); it is
// usually absent.
type Params struct {
	Types       *string    `yaml:"types"`
	DeclineType string     `yaml:"decline_type"`
	ExpDecline  ExpParams  `yaml:"exp_decline"`
	PropDecline PropParams `yaml:"prop_decline"`
}

type ExpParams struct {
	LambdaDecay float64 `yaml:"lambda_decay"`
}

type PropParams struct {
	KValue float64 `yaml:"k_value"`
}

// Placeholder returns the parameter template newly discovered stressors are
// seeded with. Users tune the values in the written YAML before validation.
func Placeholder(declineType string, lambdaDecay, kValue float64) Params {
	if declineType == "" {
		declineType = DeclineExp
	}
	if lambdaDecay <= 0 {
		lambdaDecay = 500
	}
	if kValue <= 0 {
		kValue = 500
	}
	return Params{
		DeclineType: declineType,
		ExpDecline:  ExpParams{LambdaDecay: lambdaDecay},
		PropDecline: PropParams{KValue: kValue},
	}
}

// asMap renders the params in the YAML layout the configuration file uses.
// A nil Types still gets an explicit null key so validation sees the full
// template shape.
func (p Params) asMap() map[string]any {
	var types any
	if p.Types != nil {
		types = *p.Types
	}
	return map[string]any{
		"types":        types,
		"decline_type": p.DeclineType,
		"exp_decline":  map[string]any{"lambda_decay": p.ExpDecline.LambdaDecay},
		"prop_decline": map[string]any{"k_value": p.PropDecline.KValue},
	}
}
