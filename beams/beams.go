// Package beams carries the BIPM reference radiation quality catalog
// and benchmarks a spectrum engine against its stated half-value
// layers.
//
// The qualities follow Kessler and Burns (2018), Rapport BIPM: the
// low-energy tungsten series, the molybdenum-filtered mammography
// series and the medium-energy tungsten series, all at a 20 degree
// anode angle. Qualities above 50 kV state their first half-value
// layer in mm Cu, the rest in mm Al.
package beams

import (
	"errors"
	"fmt"
	"math"

	"github.com/radkit/spekdose/spek"
)

// ErrUnknownQuality is returned when a quality name is not in the
// catalog.
var ErrUnknownQuality = errors.New("beams: unknown radiation quality")

// Quality is one standard radiation quality.
type Quality struct {
	Name          string
	KVp           float64
	AnodeAngleDeg float64
	Filters       []spek.Filter

	// HVL1Ref is the published first half-value layer in HVLMaterial
	// millimetres.
	HVL1Ref     float64
	HVLMaterial string
}

// beFilter is the 3 mm beryllium exit window common to all qualities.
var beFilter = spek.Filter{Material: "Be", ThicknessMM: 3}

func wQuality(name string, kv, alMM, cuMM, airMM, hvl1 float64) Quality {
	filters := []spek.Filter{beFilter}

	if alMM > 0 {
		filters = append(filters, spek.Filter{Material: "Al", ThicknessMM: alMM})
	}

	if cuMM > 0 {
		filters = append(filters, spek.Filter{Material: "Cu", ThicknessMM: cuMM})
	}

	filters = append(filters, spek.Filter{Material: "Air", ThicknessMM: airMM})

	hvlMat := "Al"
	if kv > 50 {
		hvlMat = "Cu"
	}

	return Quality{
		Name:          name,
		KVp:           kv,
		AnodeAngleDeg: 20,
		Filters:       filters,
		HVL1Ref:       hvl1,
		HVLMaterial:   hvlMat,
	}
}

func moQuality(name string, kv, hvl1 float64) Quality {
	return Quality{
		Name:          name,
		KVp:           kv,
		AnodeAngleDeg: 20,
		Filters: []spek.Filter{
			beFilter,
			{Material: "Mo", ThicknessMM: 0.06},
			{Material: "Air", ThicknessMM: 500},
		},
		HVL1Ref:     hvl1,
		HVLMaterial: "Al",
	}
}

// Catalog returns the BIPM qualities in publication order.
func Catalog() []Quality {
	return []Quality{
		// Low-energy tungsten series.
		wQuality("BIPM30", 30, 0.208, 0, 500, 0.169),
		wQuality("BIPM25", 25, 0.372, 0, 500, 0.242),
		wQuality("BIPM50a", 50, 1.008, 0, 500, 1.017),
		wQuality("BIPM50b", 50, 3.989, 0, 500, 2.262),

		// Molybdenum-filtered mammography series.
		moQuality("BIPM23M", 23, 0.332),
		moQuality("BIPM25M", 25, 0.342),
		moQuality("BIPM28M", 28, 0.355),
		moQuality("BIPM30M", 30, 0.364),
		moQuality("BIPM35M", 35, 0.388),
		moQuality("BIPM40M", 40, 0.417),
		moQuality("BIPM50M", 50, 0.489),

		// Medium-energy tungsten series.
		wQuality("BIPM100", 100, 3.431, 0, 1150, 0.149),
		wQuality("BIPM135", 135, 2.228, 0.232, 1150, 0.489),
		wQuality("BIPM180", 180, 2.228, 0.485, 1150, 0.977),
		wQuality("BIPM250", 250, 2.228, 1.57, 1150, 2.484),
	}
}

// Get looks a quality up by name.
func Get(name string) (Quality, error) {
	for _, q := range Catalog() {
		if q.Name == name {
			return q, nil
		}
	}

	return Quality{}, fmt.Errorf("%w: %q", ErrUnknownQuality, name)
}

// Spectrum realizes the quality on the engine, with filtration applied.
func (q Quality) Spectrum(eng spek.Engine) (spek.Spectrum, error) {
	s, err := eng.NewSpectrum(spek.Params{
		KVp:           q.KVp,
		AnodeAngleDeg: q.AnodeAngleDeg,
	})
	if err != nil {
		return nil, fmt.Errorf("beams: %s: %w", q.Name, err)
	}

	if err := s.MultiFilter(q.Filters); err != nil {
		return nil, fmt.Errorf("beams: %s filtration: %w", q.Name, err)
	}

	return s, nil
}

// Deviation is the engine's HVL1 for one quality against the reference.
type Deviation struct {
	Quality     Quality
	HVL1MM      float64
	DeviationPC float64 // 100*(hvl1-ref)/ref
}

// Analysis is the benchmark over the full catalog.
type Analysis struct {
	Deviations []Deviation
	MeanPC     float64 // mean percentage deviation
	StdPC      float64 // population standard deviation
}

// Analyze computes the engine's HVL1 for every catalog quality and the
// percentage deviation from the published value.
func Analyze(eng spek.Engine) (Analysis, error) {
	var a Analysis

	for _, q := range Catalog() {
		s, err := q.Spectrum(eng)
		if err != nil {
			return Analysis{}, err
		}

		hvl1, err := s.HVL1(q.HVLMaterial)
		if err != nil {
			return Analysis{}, fmt.Errorf("beams: %s HVL1: %w", q.Name, err)
		}

		a.Deviations = append(a.Deviations, Deviation{
			Quality:     q,
			HVL1MM:      hvl1,
			DeviationPC: 100 * (hvl1 - q.HVL1Ref) / q.HVL1Ref,
		})
	}

	sum := 0.0
	for _, d := range a.Deviations {
		sum += d.DeviationPC
	}

	a.MeanPC = sum / float64(len(a.Deviations))

	varSum := 0.0
	for _, d := range a.Deviations {
		varSum += (d.DeviationPC - a.MeanPC) * (d.DeviationPC - a.MeanPC)
	}

	a.StdPC = math.Sqrt(varSum / float64(len(a.Deviations)))

	return a, nil
}
