package kramers

import (
	"errors"
	"fmt"
	"math"

	"github.com/radkit/spekdose/internal/xdata"
	"github.com/radkit/spekdose/spek"
)

// Physical constants of the classical bremsstrahlung model.
const (
	// speed of light [m/s]
	lightSpeed = 2.998e8
	// reduced Planck constant [J s]
	hbar = 6.626e-34 / (2 * math.Pi)
	// classical electron radius [m]
	electronRad = 2.81794e-15
	// Kramers' logarithm term
	kramersLog = 6.0

	keVPerJoule = 1e-3 / 1.602e-19
	mAsPerElec  = 1e3 * 1.602e-19

	// uGy air kerma per (photon/cm2) * keV * (cm2/g):
	// keV -> J, J/g -> Gy via *1e3, Gy -> uGy via *1e6.
	kermaPerFluence = 1.602e-16 * 1e3 * 1e6
)

// target describes an anode target material.
type target struct {
	z          float64   // atomic number
	kEdgeKeV   float64
	lineKeV    []float64 // characteristic line energies
	lineWeight []float64 // relative line intensities
	charScale  float64   // scale of the characteristic fraction
	charExpo   float64   // exponent of the overvoltage ramp
	depthRefCM float64   // mean x-ray production depth at 100 kVp
}

var targets = map[string]target{
	"W": {
		z:          74,
		kEdgeKeV:   69.525,
		lineKeV:    []float64{57.98, 59.32, 67.24, 69.07},
		lineWeight: []float64{57.6, 100, 23.1, 8.1},
		charScale:  0.08,
		charExpo:   0.7,
		depthRefCM: 7e-4,
	},
	"Mo": {
		z:          42,
		kEdgeKeV:   20.0,
		lineKeV:    []float64{17.44, 19.61},
		lineWeight: []float64{100, 15},
		charScale:  0.25,
		charExpo:   0.5,
		depthRefCM: 9e-4,
	},
}

// Engine generates spectra with the classical analytical model.
type Engine struct {
	mu   muData
	muEn muEnAirData
}

// New returns a ready engine.
func New() *Engine {
	return &Engine{}
}

// NewSpectrum generates a spectrum for p.
func (e *Engine) NewSpectrum(p spek.Params) (spek.Spectrum, error) {
	p = p.WithDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	tgt, ok := targets[p.Target]
	if !ok {
		return nil, fmt.Errorf("%w: %q", spek.ErrUnknownTarget, p.Target)
	}

	s, err := newSpectrum(p, tgt)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Mu returns the engine's attenuation coefficient data.
func (e *Engine) Mu() spek.MuData {
	return e.mu
}

// MuEnAir returns the engine's air energy-absorption data.
func (e *Engine) MuEnAir() spek.MuEnAirData {
	return e.muEn
}

// muData adapts the packaged tables to spek.MuData.
type muData struct{}

func (muData) MuOverRho(material string, k []float64) ([]float64, error) {
	out, err := xdata.MuOverRhoSpectrum(material, k)
	if err != nil {
		if errors.Is(err, xdata.ErrUnknownMaterial) {
			return nil, fmt.Errorf("%w: %q", spek.ErrUnknownMaterial, material)
		}

		return nil, err
	}

	return out, nil
}

func (muData) Density(material string) (float64, error) {
	rho, err := xdata.Density(material)
	if err != nil {
		if errors.Is(err, xdata.ErrUnknownMaterial) {
			return 0, fmt.Errorf("%w: %q", spek.ErrUnknownMaterial, material)
		}

		return 0, err
	}

	return rho, nil
}

// muEnAirData adapts the packaged air absorption table.
type muEnAirData struct{}

func (muEnAirData) MuEnOverRho(k []float64) []float64 {
	return xdata.MuEnAirOverRhoSpectrum(k)
}
