package dose

import (
	"fmt"

	"github.com/radkit/spekdose/spek"
)

// Result is the flat record of one ESAK calculation.
type Result struct {
	ESAKMGy            float64 `json:"esak_mgy"`
	KermaPerMAsUGy     float64 `json:"kerma_per_mas_ugy"`
	DistanceCorrection float64 `json:"distance_correction"`

	HVL1AlMM               float64 `json:"hvl1_al_mm"`
	HVL2AlMM               float64 `json:"hvl2_al_mm"`
	HVL1CuMM               float64 `json:"hvl1_cu_mm"`
	MeanEnergyKeV          float64 `json:"mean_energy_kev"`
	EffectiveEnergyKeV     float64 `json:"effective_energy_kev"`
	HomogeneityCoefficient float64 `json:"homogeneity_coefficient"`
	TotalFluence           float64 `json:"total_fluence"`
	EnergyFluenceKeV       float64 `json:"energy_fluence_kev"`

	BSF            float64 `json:"bsf"`
	ESAKWithBSFMGy float64 `json:"esak_with_bsf_mgy"`

	Exposure Exposure `json:"parameters"`
}

// Calculator derives ESAK and beam quality from a spectrum engine.
type Calculator struct {
	eng spek.Engine
	bsf *BackscatterTable
}

// New builds a calculator around the engine, loading the packaged
// backscatter table.
func New(eng spek.Engine) (*Calculator, error) {
	table, err := LoadBackscatterTable()
	if err != nil {
		return nil, err
	}

	return &Calculator{eng: eng, bsf: table}, nil
}

// spectrum generates the filtered spectrum for an exposure.
func (c *Calculator) spectrum(exp Exposure) (spek.Spectrum, error) {
	s, err := c.eng.NewSpectrum(exp.params())
	if err != nil {
		return nil, fmt.Errorf("dose: generating spectrum: %w", err)
	}

	if err := s.MultiFilter(exp.Filters); err != nil {
		return nil, fmt.Errorf("dose: applying filtration: %w", err)
	}

	return s, nil
}

// SpectrumData returns the energy bins and differential fluence of the
// exposure's beam at the skin surface.
func (c *Calculator) SpectrumData(exp Exposure) (k, phi []float64, err error) {
	exp = exp.WithDefaults()
	if err := exp.Validate(); err != nil {
		return nil, nil, err
	}

	s, err := c.spectrum(exp)
	if err != nil {
		return nil, nil, err
	}

	k, phi = s.FluenceSpectrum(exp.SSDCM)

	return k, phi, nil
}

// Calculate runs the full dosimetric workup for one exposure.
func (c *Calculator) Calculate(exp Exposure) (Result, error) {
	exp = exp.WithDefaults()
	if err := exp.Validate(); err != nil {
		return Result{}, err
	}

	s, err := c.spectrum(exp)
	if err != nil {
		return Result{}, err
	}

	res := Result{Exposure: exp, BSF: neutralBSF}

	// Kerma per mAs at the reference distance, scaled to the actual
	// tube charge and corrected to the skin plane by inverse square.
	res.KermaPerMAsUGy = s.Kerma(spek.RefDistanceCM)
	res.DistanceCorrection = (spek.RefDistanceCM / exp.SSDCM) * (spek.RefDistanceCM / exp.SSDCM)
	res.ESAKMGy = res.KermaPerMAsUGy * exp.MAs() * res.DistanceCorrection / 1000

	if res.HVL1AlMM, err = s.HVL1("Al"); err != nil {
		return Result{}, fmt.Errorf("dose: HVL1 Al: %w", err)
	}

	if res.HVL2AlMM, err = s.HVL2("Al"); err != nil {
		return Result{}, fmt.Errorf("dose: HVL2 Al: %w", err)
	}

	if res.HVL1CuMM, err = s.HVL1("Cu"); err != nil {
		return Result{}, fmt.Errorf("dose: HVL1 Cu: %w", err)
	}

	res.MeanEnergyKeV = s.MeanEnergy()

	if res.EffectiveEnergyKeV, err = s.EffectiveEnergy(); err != nil {
		return Result{}, fmt.Errorf("dose: effective energy: %w", err)
	}

	if res.HomogeneityCoefficient, err = s.HomogeneityCoefficient(); err != nil {
		return Result{}, fmt.Errorf("dose: homogeneity coefficient: %w", err)
	}

	res.TotalFluence = s.Fluence(spek.RefDistanceCM)
	res.EnergyFluenceKeV = s.EnergyFluence(spek.RefDistanceCM)

	if exp.FieldDiameterCM > 0 {
		k, phi := s.FluenceSpectrum(spek.RefDistanceCM)
		muen := c.eng.MuEnAir().MuEnOverRho(k)
		res.BSF = c.bsf.SpectrumWeighted(k, phi, muen, exp.SSDCM, exp.FieldDiameterCM)
	}

	res.ESAKWithBSFMGy = res.ESAKMGy * res.BSF

	return res, nil
}
