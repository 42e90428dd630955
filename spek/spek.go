package spek

import "errors"

// Errors returned by engines and by parameter validation.
var (
	ErrInvalidPotential  = errors.New("spek: tube potential out of range")
	ErrInvalidAngle      = errors.New("spek: anode angle must be in (0, 90) degrees")
	ErrInvalidEnergyStep = errors.New("spek: energy bin width must be positive")
	ErrNegativeThickness = errors.New("spek: filter thickness must not be negative")
	ErrUnknownMaterial   = errors.New("spek: unknown material")
	ErrUnknownTarget     = errors.New("spek: unsupported target material")
	ErrNoConvergence     = errors.New("spek: search did not converge")
	ErrTargetHVL         = errors.New("spek: target HVL not reachable by added filtration")
)

// RefDistanceCM is the reference source distance for fluence and kerma
// queries, the usual 100 cm calibration convention.
const RefDistanceCM = 100.0

// Model selects the physics model of an engine. Engines are free to
// ignore selectors they do not distinguish.
type Model string

// Physics model selectors.
const (
	ModelDefault   Model = ""
	ModelClassical Model = "classical"
	ModelKQP       Model = "kqp"
)

// Filter is one step of beam filtration: a named material and a
// thickness in millimetres. Zero thickness is valid and has no effect.
type Filter struct {
	Material    string  `json:"material" yaml:"material"`
	ThicknessMM float64 `json:"thickness_mm" yaml:"thickness_mm"`
}

// Params specifies the spectrum to generate.
type Params struct {
	// KVp is the tube potential in kilovolts peak.
	KVp float64
	// AnodeAngleDeg is the anode (takeoff) angle in degrees.
	// Defaults to 12.
	AnodeAngleDeg float64
	// Target is the anode target material, "W" or "Mo". Defaults to "W".
	Target string
	// Physics selects the engine's physics model.
	Physics Model
	// EnergyStepKeV is the spectrum bin width. Defaults to 0.5 keV.
	EnergyStepKeV float64
	// Oblique lengthens filtration paths for off-axis rays when set.
	Oblique bool
}

// WithDefaults returns a copy of p with zero fields replaced by the
// package defaults.
func (p Params) WithDefaults() Params {
	if p.AnodeAngleDeg == 0 {
		p.AnodeAngleDeg = 12
	}

	if p.Target == "" {
		p.Target = "W"
	}

	if p.EnergyStepKeV == 0 {
		p.EnergyStepKeV = 0.5
	}

	return p
}

// Validate checks p after defaulting.
func (p Params) Validate() error {
	if p.KVp < 5 || p.KVp > 500 {
		return ErrInvalidPotential
	}

	if p.AnodeAngleDeg <= 0 || p.AnodeAngleDeg >= 90 {
		return ErrInvalidAngle
	}

	if p.EnergyStepKeV <= 0 {
		return ErrInvalidEnergyStep
	}

	return nil
}

// Spectrum is a generated x-ray spectrum. Distances z are in cm from
// the focal spot; energies are in keV; fluence is photons per cm2 per
// keV per mAs.
type Spectrum interface {
	// Filter attenuates the beam by thicknessMM of the named material.
	Filter(material string, thicknessMM float64) error
	// MultiFilter applies a list of filtration steps in order.
	MultiFilter(filters []Filter) error
	// Clone returns an independent copy of the spectrum.
	Clone() Spectrum
	// SetOffAxis moves the evaluation point laterally in the
	// anode-cathode direction (anode side negative).
	SetOffAxis(xCM float64)
	// SetComponents enables or suppresses the bremsstrahlung and
	// characteristic components.
	SetComponents(brems, characteristic bool)

	// Energies returns the bin centre energies.
	Energies() []float64
	// FluenceSpectrum returns energies and differential fluence at
	// distance z.
	FluenceSpectrum(zCM float64) (k, phi []float64)
	// Fluence returns the energy-integrated fluence at distance z.
	Fluence(zCM float64) float64
	// EnergyFluence returns the integrated energy fluence at z, in
	// keV/cm2 per mAs.
	EnergyFluence(zCM float64) float64
	// Kerma returns the air kerma at distance z, in uGy per mAs.
	Kerma(zCM float64) float64

	// HVL1 returns the first half-value layer in mm of the material.
	HVL1(material string) (float64, error)
	// HVL2 returns the second half-value layer in mm of the material.
	HVL2(material string) (float64, error)
	// MeanEnergy returns the fluence-weighted mean energy in keV.
	MeanEnergy() float64
	// EffectiveEnergy returns the energy of the monoenergetic beam
	// with the same first HVL in aluminium, in keV.
	EffectiveEnergy() (float64, error)
	// HomogeneityCoefficient returns HVL1/HVL2 in aluminium.
	HomogeneityCoefficient() (float64, error)
	// MatchFiltration returns the thickness of the material, in mm,
	// that filters the beam to the target first HVL (mm of the same
	// material).
	MatchFiltration(material string, targetHVLMM float64) (float64, error)
}

// MuData provides mass attenuation coefficients for named materials.
type MuData interface {
	// MuOverRho returns mu/rho in cm2/g at each energy of k (keV).
	MuOverRho(material string, k []float64) ([]float64, error)
	// Density returns the bulk density in g/cm3.
	Density(material string) (float64, error)
}

// MuEnAirData provides mass energy-absorption coefficients for air.
type MuEnAirData interface {
	// MuEnOverRho returns muen/rho for air in cm2/g at each energy
	// of k (keV).
	MuEnOverRho(k []float64) []float64
}

// Engine generates spectra and exposes its coefficient data.
type Engine interface {
	NewSpectrum(p Params) (Spectrum, error)
	Mu() MuData
	MuEnAir() MuEnAirData
}
