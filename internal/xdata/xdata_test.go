package xdata

import (
	"errors"
	"math"
	"testing"
)

func TestMuOverRhoAtNodes(t *testing.T) {
	// Interpolation must reproduce the table exactly at grid nodes.
	got, err := MuOverRho("Al", 30)
	if err != nil {
		t.Fatalf("MuOverRho: %v", err)
	}

	if math.Abs(got-1.128) > 1e-12 {
		t.Fatalf("Al @ 30 keV = %v, want 1.128", got)
	}
}

func TestMuOverRhoBetweenNodes(t *testing.T) {
	// Between nodes the value must lie between its neighbours for a
	// monotone segment.
	got, err := MuOverRho("Cu", 25)
	if err != nil {
		t.Fatalf("MuOverRho: %v", err)
	}

	if got <= 10.92 || got >= 33.79 {
		t.Fatalf("Cu @ 25 keV = %v, want within (10.92, 33.79)", got)
	}
}

func TestMuOverRhoDecreasesWithEnergy(t *testing.T) {
	prev := math.Inf(1)
	for _, k := range []float64{10, 20, 30, 50, 80, 120} {
		mu, err := MuOverRho("Water", k)
		if err != nil {
			t.Fatalf("MuOverRho: %v", err)
		}

		if mu >= prev {
			t.Fatalf("water mu/rho not decreasing at %v keV: %v >= %v", k, mu, prev)
		}

		prev = mu
	}
}

func TestExtrapolationBelowGrid(t *testing.T) {
	at10, _ := MuOverRho("Al", 10)

	at5, err := MuOverRho("Al", 5)
	if err != nil {
		t.Fatalf("MuOverRho: %v", err)
	}

	// Photoelectric power law keeps growing toward low energy.
	if at5 <= at10 {
		t.Fatalf("extrapolated Al @ 5 keV = %v, want > %v", at5, at10)
	}
}

func TestClampAboveGrid(t *testing.T) {
	at300, _ := MuOverRho("Al", 300)

	at500, err := MuOverRho("Al", 500)
	if err != nil {
		t.Fatalf("MuOverRho: %v", err)
	}

	if at500 != at300 {
		t.Fatalf("Al @ 500 keV = %v, want clamp to %v", at500, at300)
	}
}

func TestUnknownMaterial(t *testing.T) {
	_, err := MuOverRho("unobtainium", 50)
	if !errors.Is(err, ErrUnknownMaterial) {
		t.Fatalf("err = %v, want ErrUnknownMaterial", err)
	}

	if Known("unobtainium") {
		t.Fatal("Known(unobtainium) = true")
	}
}

func TestCanonicalNames(t *testing.T) {
	for _, alias := range []string{"al", "Aluminium", " ALUMINUM "} {
		if !Known(alias) {
			t.Fatalf("alias %q not recognised", alias)
		}
	}

	d, err := Density("tissue")
	if err != nil {
		t.Fatalf("Density: %v", err)
	}

	if math.Abs(d-1.060) > 1e-12 {
		t.Fatalf("tissue density = %v, want 1.060", d)
	}
}

func TestMuEnAir(t *testing.T) {
	if got := MuEnAirOverRho(10); math.Abs(got-4.742) > 1e-12 {
		t.Fatalf("muen air @ 10 keV = %v, want 4.742", got)
	}

	// Dip around 60-100 keV then slight rise is in the table; just
	// check positivity across the diagnostic range.
	for k := 5.0; k <= 300; k += 7.5 {
		if MuEnAirOverRho(k) <= 0 {
			t.Fatalf("muen air @ %v keV not positive", k)
		}
	}
}

func TestSpectrumVariants(t *testing.T) {
	k := []float64{20, 40, 60}

	mus, err := MuOverRhoSpectrum("Al", k)
	if err != nil {
		t.Fatalf("MuOverRhoSpectrum: %v", err)
	}

	if len(mus) != len(k) {
		t.Fatalf("len = %d, want %d", len(mus), len(k))
	}

	for i, e := range k {
		one, _ := MuOverRho("Al", e)
		if mus[i] != one {
			t.Fatalf("spectrum variant mismatch at %v keV", e)
		}
	}

	muen := MuEnAirOverRhoSpectrum(k)
	if len(muen) != len(k) {
		t.Fatalf("muen len = %d, want %d", len(muen), len(k))
	}
}
