// Package imaging evaluates image quality against dose over a range of
// tube potentials.
//
// For each potential the sweep builds a filtered spectrum, passes one
// copy through the background tissue stack and one through the signal
// stack, folds both with the detector's quantum efficiency, and reduces
// them to relative contrast, contrast-to-noise ratio, incident air
// kerma and dose-normalized CNR. The CNRD maximum marks the optimal
// operating point.
package imaging

import (
	"errors"
	"fmt"
	"math"

	"github.com/radkit/spekdose/spek"
)

// Errors returned by sweep validation.
var (
	ErrNoBackground    = errors.New("imaging: background tissue stack is empty")
	ErrNoSignal        = errors.New("imaging: signal tissue stack is empty")
	ErrInvalidRange    = errors.New("imaging: potential range must satisfy start < end with positive step")
	ErrInvalidGeometry = errors.New("imaging: source-to-detector distance must exceed the patient thickness")
	ErrEmptySweep      = errors.New("imaging: sweep produced no points")
)

// Layer is a slab of tissue in the beam path.
type Layer struct {
	Material    string
	ThicknessCM float64
}

// Detector models an energy-integrating scintillator detector.
type Detector struct {
	Material    string  // scintillator material
	ThicknessCM float64 // scintillator thickness
	Density     float64 // packing density in g/cm3
	FillFactor  float64 // active fraction of the pixel
	PixelSizeCM float64 // pixel pitch
}

// DefaultDetector is a 600 um CsI flat panel detector.
func DefaultDetector() Detector {
	return Detector{
		Material:    "CsI",
		ThicknessCM: 0.06,
		Density:     4.51,
		FillFactor:  0.8,
		PixelSizeCM: 0.015,
	}
}

// Config describes one optimization sweep.
type Config struct {
	// Background and Signal are the tissue stacks for the two beam
	// paths. Signal usually repeats the background with one layer
	// exchanged for the feature of interest.
	Background []Layer
	Signal     []Layer

	// SDDCM is the source-to-detector distance.
	SDDCM float64

	// KVStart, KVEnd and KVStep bound the swept tube potentials.
	// Defaults: 50 to 150 kV in 5 kV steps.
	KVStart, KVEnd, KVStep float64

	// Filters is the tube filtration. Defaults to 3.5 mm Al +
	// 0.1 mm Cu plus the air column to the skin.
	Filters []spek.Filter

	// Detector receiving the beam. Defaults to DefaultDetector.
	Detector Detector

	// GridFactor is the primary transmission of the anti-scatter
	// grid. Defaults to 1 (no grid).
	GridFactor float64

	// Physics selects the engine model.
	Physics spek.Model

	// AnodeAngleDeg defaults to 12.
	AnodeAngleDeg float64
}

// WithDefaults returns a copy of cfg with zero fields replaced.
func (cfg Config) WithDefaults() Config {
	if cfg.KVStart == 0 && cfg.KVEnd == 0 {
		cfg.KVStart, cfg.KVEnd = 50, 150
	}

	if cfg.KVStep == 0 {
		cfg.KVStep = 5
	}

	if cfg.SDDCM == 0 {
		cfg.SDDCM = 150
	}

	if cfg.AnodeAngleDeg == 0 {
		cfg.AnodeAngleDeg = 12
	}

	if cfg.GridFactor == 0 {
		cfg.GridFactor = 1
	}

	if cfg.Detector == (Detector{}) {
		cfg.Detector = DefaultDetector()
	}

	if cfg.Filters == nil {
		ssd := cfg.SDDCM - totalThickness(cfg.Background)
		cfg.Filters = []spek.Filter{
			{Material: "Al", ThicknessMM: 3.5},
			{Material: "Cu", ThicknessMM: 0.1},
			{Material: "Air", ThicknessMM: ssd * 10},
		}
	}

	return cfg
}

// Validate checks cfg after defaulting.
func (cfg Config) Validate() error {
	if len(cfg.Background) == 0 {
		return ErrNoBackground
	}

	if len(cfg.Signal) == 0 {
		return ErrNoSignal
	}

	if cfg.KVStart >= cfg.KVEnd || cfg.KVStep <= 0 {
		return ErrInvalidRange
	}

	if cfg.SDDCM <= 0 || cfg.SDDCM <= totalThickness(cfg.Background) {
		return ErrInvalidGeometry
	}

	return nil
}

func totalThickness(stack []Layer) float64 {
	sum := 0.0
	for _, l := range stack {
		sum += l.ThicknessCM
	}

	return sum
}

// Point is the metric set at one tube potential.
type Point struct {
	KV       float64
	Contrast float64 // relative contrast
	CNR      float64 // contrast-to-noise ratio
	KermaUGy float64 // incident air kerma per mAs at the skin
	CNRD     float64 // CNR normalized by sqrt(kerma)
}

// Result is the full sweep.
type Result struct {
	Points []Point
}

// Optimum returns the point with the highest dose-normalized CNR.
func (r Result) Optimum() Point {
	best := r.Points[0]
	for _, p := range r.Points[1:] {
		if p.CNRD > best.CNRD {
			best = p
		}
	}

	return best
}

// epsilon guards the contrast ratio against a fully attenuated beam.
const epsilon = 1e-30

// Run executes the sweep against the engine.
func Run(eng spek.Engine, cfg Config) (Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	det := cfg.Detector
	ssd := cfg.SDDCM - totalThickness(cfg.Background)
	area := det.PixelSizeCM * det.PixelSizeCM

	var res Result

	for kv := cfg.KVStart; kv <= cfg.KVEnd+1e-9; kv += cfg.KVStep {
		s, err := eng.NewSpectrum(spek.Params{
			KVp:           kv,
			AnodeAngleDeg: cfg.AnodeAngleDeg,
			Physics:       cfg.Physics,
		})
		if err != nil {
			return Result{}, fmt.Errorf("imaging: spectrum at %v kV: %w", kv, err)
		}

		if err := s.MultiFilter(cfg.Filters); err != nil {
			return Result{}, fmt.Errorf("imaging: filtration at %v kV: %w", kv, err)
		}

		k := s.Energies()

		alpha, err := quantumEfficiency(eng, det, k)
		if err != nil {
			return Result{}, err
		}

		phiB, err := tissueSpectrum(s, cfg.Background, cfg.SDDCM)
		if err != nil {
			return Result{}, err
		}

		phiS, err := tissueSpectrum(s, cfg.Signal, cfg.SDDCM)
		if err != nil {
			return Result{}, err
		}

		dk := binWidth(k)
		gain := cfg.GridFactor * det.FillFactor * area

		// Energy-integrating detector: signal weights k, variance k^2.
		sigB, sigS, varB := 0.0, 0.0, 0.0
		for i := range k {
			sigB += gain * phiB[i] * alpha[i] * k[i] * dk
			sigS += gain * phiS[i] * alpha[i] * k[i] * dk
			varB += gain * phiB[i] * alpha[i] * k[i] * k[i] * dk
		}

		p := Point{KV: kv}
		p.Contrast = (sigB - sigS) / (sigB + epsilon)

		if varB > 0 {
			p.CNR = p.Contrast * sigB / math.Sqrt(varB)
		}

		p.KermaUGy = s.Kerma(ssd)
		if p.KermaUGy > 0 {
			p.CNRD = p.CNR / math.Sqrt(p.KermaUGy)
		}

		res.Points = append(res.Points, p)
	}

	if len(res.Points) == 0 {
		return Result{}, ErrEmptySweep
	}

	return res, nil
}

// tissueSpectrum clones the filtered tube spectrum through a tissue
// stack and evaluates it at the detector plane.
func tissueSpectrum(s spek.Spectrum, stack []Layer, sddCM float64) ([]float64, error) {
	c := s.Clone()

	for _, l := range stack {
		if err := c.Filter(l.Material, l.ThicknessCM*10); err != nil {
			return nil, fmt.Errorf("imaging: tissue layer %s: %w", l.Material, err)
		}
	}

	_, phi := c.FluenceSpectrum(sddCM)

	return phi, nil
}

// quantumEfficiency is the detector absorption curve 1 - exp(-mu*t*rho).
func quantumEfficiency(eng spek.Engine, det Detector, k []float64) ([]float64, error) {
	mu, err := eng.Mu().MuOverRho(det.Material, k)
	if err != nil {
		return nil, fmt.Errorf("imaging: detector material: %w", err)
	}

	out := make([]float64, len(k))
	for i := range k {
		out[i] = 1 - math.Exp(-mu[i]*det.ThicknessCM*det.Density)
	}

	return out, nil
}

func binWidth(k []float64) float64 {
	if len(k) < 2 {
		return 1
	}

	return k[1] - k[0]
}
