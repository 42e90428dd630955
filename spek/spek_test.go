package spek

import (
	"errors"
	"testing"
)

func TestParamsWithDefaults(t *testing.T) {
	p := Params{KVp: 100}.WithDefaults()

	if p.AnodeAngleDeg != 12 {
		t.Fatalf("default anode angle = %v, want 12", p.AnodeAngleDeg)
	}

	if p.Target != "W" {
		t.Fatalf("default target = %q, want W", p.Target)
	}

	if p.EnergyStepKeV != 0.5 {
		t.Fatalf("default energy step = %v, want 0.5", p.EnergyStepKeV)
	}
}

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name string
		p    Params
		want error
	}{
		{"valid", Params{KVp: 100}.WithDefaults(), nil},
		{"low potential", Params{KVp: 2}.WithDefaults(), ErrInvalidPotential},
		{"high potential", Params{KVp: 900}.WithDefaults(), ErrInvalidPotential},
		{"bad angle", Params{KVp: 100, AnodeAngleDeg: 95, Target: "W", EnergyStepKeV: 0.5}, ErrInvalidAngle},
		{"bad step", Params{KVp: 100, AnodeAngleDeg: 12, Target: "W", EnergyStepKeV: -1}, ErrInvalidEnergyStep},
	}

	for _, tc := range cases {
		if err := tc.p.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
