package dose

import (
	"errors"
	"math"
	"testing"

	"github.com/radkit/spekdose/spek"
	"github.com/radkit/spekdose/spek/kramers"
)

func newCalc(t *testing.T) *Calculator {
	t.Helper()

	calc, err := New(kramers.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return calc
}

func chestExposure() Exposure {
	return Exposure{
		KVp:     120,
		MA:      100,
		TimeS:   0.1,
		SSDCM:   180,
		Filters: []spek.Filter{{Material: "Al", ThicknessMM: 2.5}},
	}
}

func TestCalculateBasics(t *testing.T) {
	res, err := newCalc(t).Calculate(chestExposure())
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.ESAKMGy <= 0 {
		t.Fatalf("ESAK = %v, want > 0", res.ESAKMGy)
	}

	if res.HVL1AlMM <= 0 || res.HVL2AlMM <= res.HVL1AlMM {
		t.Fatalf("HVLs = %v / %v, want 0 < HVL1 < HVL2", res.HVL1AlMM, res.HVL2AlMM)
	}

	if res.HVL1CuMM >= res.HVL1AlMM {
		t.Fatalf("copper HVL %v should be below aluminium HVL %v", res.HVL1CuMM, res.HVL1AlMM)
	}

	if res.MeanEnergyKeV <= 0 || res.MeanEnergyKeV >= 120 {
		t.Fatalf("mean energy = %v", res.MeanEnergyKeV)
	}

	// No field size: backscatter stays neutral.
	if res.BSF != 1.0 {
		t.Fatalf("BSF = %v, want 1.0 without field size", res.BSF)
	}

	if res.ESAKWithBSFMGy != res.ESAKMGy {
		t.Fatalf("corrected ESAK = %v, want = ESAK %v", res.ESAKWithBSFMGy, res.ESAKMGy)
	}

	// Defaults are echoed back with the result.
	if res.Exposure.Target != "W" || res.Exposure.AnodeAngleDeg != 12 {
		t.Fatalf("defaults not echoed: %+v", res.Exposure)
	}
}

func TestESAKLinearInMAs(t *testing.T) {
	calc := newCalc(t)

	e1 := chestExposure()
	e2 := chestExposure()
	e2.MA *= 2

	r1, err := calc.Calculate(e1)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	r2, err := calc.Calculate(e2)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if math.Abs(r2.ESAKMGy/r1.ESAKMGy-2) > 1e-9 {
		t.Fatalf("ESAK not linear in mAs: %v vs %v", r2.ESAKMGy, r1.ESAKMGy)
	}
}

func TestESAKInverseSquare(t *testing.T) {
	calc := newCalc(t)

	near := chestExposure()
	near.SSDCM = 50

	far := chestExposure()
	far.SSDCM = 100

	rNear, err := calc.Calculate(near)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	rFar, err := calc.Calculate(far)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if math.Abs(rNear.ESAKMGy/rFar.ESAKMGy-4) > 1e-9 {
		t.Fatalf("inverse square violated: %v vs %v", rNear.ESAKMGy, rFar.ESAKMGy)
	}

	if rFar.DistanceCorrection != 1 {
		t.Fatalf("distance correction at 100 cm = %v, want 1", rFar.DistanceCorrection)
	}
}

func TestFiltrationReducesESAK(t *testing.T) {
	calc := newCalc(t)

	light := chestExposure()

	heavy := chestExposure()
	heavy.Filters = append(heavy.Filters, spek.Filter{Material: "Cu", ThicknessMM: 0.2})

	rLight, err := calc.Calculate(light)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	rHeavy, err := calc.Calculate(heavy)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if rHeavy.ESAKMGy >= rLight.ESAKMGy {
		t.Fatal("extra filtration did not reduce ESAK")
	}

	if rHeavy.HVL1AlMM <= rLight.HVL1AlMM {
		t.Fatal("extra filtration did not raise HVL1")
	}
}

func TestBackscatterCorrection(t *testing.T) {
	calc := newCalc(t)

	exp := chestExposure()
	exp.SSDCM = 100
	exp.FieldDiameterCM = 10

	res, err := calc.Calculate(exp)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if res.BSF <= 1.0 || res.BSF >= 1.6 {
		t.Fatalf("BSF = %v, want within (1.0, 1.6)", res.BSF)
	}

	if math.Abs(res.ESAKWithBSFMGy-res.ESAKMGy*res.BSF) > 1e-12 {
		t.Fatalf("corrected ESAK %v != ESAK*BSF %v", res.ESAKWithBSFMGy, res.ESAKMGy*res.BSF)
	}

	if res.Exposure.Phantom != "Water" {
		t.Fatalf("phantom default = %q, want Water", res.Exposure.Phantom)
	}
}

func TestSpectrumData(t *testing.T) {
	k, phi, err := newCalc(t).SpectrumData(chestExposure())
	if err != nil {
		t.Fatalf("SpectrumData: %v", err)
	}

	if len(k) == 0 || len(k) != len(phi) {
		t.Fatalf("spectrum shape: %d energies, %d fluences", len(k), len(phi))
	}
}

func TestExposureValidation(t *testing.T) {
	calc := newCalc(t)

	cases := []struct {
		name string
		mut  func(*Exposure)
		want error
	}{
		{"zero current", func(e *Exposure) { e.MA = 0 }, ErrInvalidCurrent},
		{"zero time", func(e *Exposure) { e.TimeS = 0 }, ErrInvalidTime},
		{"negative ssd", func(e *Exposure) { e.SSDCM = -5 }, ErrInvalidDistance},
		{"negative field", func(e *Exposure) { e.FieldDiameterCM = -1 }, ErrInvalidField},
		{"bad potential", func(e *Exposure) { e.KVp = 0 }, spek.ErrInvalidPotential},
		{"negative filter", func(e *Exposure) {
			e.Filters = []spek.Filter{{Material: "Al", ThicknessMM: -1}}
		}, spek.ErrNegativeThickness},
	}

	for _, tc := range cases {
		exp := chestExposure()
		tc.mut(&exp)

		if _, err := calc.Calculate(exp); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
