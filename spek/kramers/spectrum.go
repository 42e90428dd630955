package kramers

import (
	"fmt"
	"math"

	"github.com/radkit/spekdose/internal/specmath"
	"github.com/radkit/spekdose/internal/xdata"
	"github.com/radkit/spekdose/spek"
)

// spectrum is the engine's spek.Spectrum implementation.
//
// The unfiltered bremsstrahlung and characteristic components are fixed
// at construction for the central axis at the reference distance.
// Filtration accumulates as optical depth per bin; distance, off-axis
// position and anode self-filtration are applied at evaluation time.
type spectrum struct {
	p   spek.Params
	tgt target

	k     []float64 // bin centre energies [keV]
	dk    float64
	brems []float64 // unfiltered continuum [cm-2 keV-1 mAs-1] at 100 cm
	char  []float64 // characteristic lines, same units
	tau   []float64 // accumulated filtration optical depth per bin

	muTarget []float64 // linear attenuation of the target [1/cm] per bin
	muEnAir  []float64 // muen/rho of air [cm2/g] per bin
	depthCM  float64   // mean production depth in the anode

	filters  []spek.Filter
	xCM      float64
	useBrems bool
	useChar  bool
}

func newSpectrum(p spek.Params, tgt target) (*spectrum, error) {
	dk := p.EnergyStepKeV

	n := int(p.KVp / dk)
	if n < 2 {
		return nil, spek.ErrInvalidEnergyStep
	}

	k := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		centre := dk * (float64(i) + 0.5)
		if centre >= p.KVp {
			break
		}

		k = append(k, centre)
	}

	s := &spectrum{
		p:        p,
		tgt:      tgt,
		k:        k,
		dk:       dk,
		tau:      make([]float64, len(k)),
		useBrems: true,
		useChar:  true,
	}

	muT, err := xdata.MuOverRhoSpectrum(p.Target, k)
	if err != nil {
		return nil, fmt.Errorf("kramers: target coefficients: %w", err)
	}

	rhoT, _ := xdata.Density(p.Target)

	s.muTarget = make([]float64, len(k))
	for i := range muT {
		s.muTarget[i] = muT[i] * rhoT
	}

	s.muEnAir = xdata.MuEnAirOverRhoSpectrum(k)
	s.depthCM = tgt.depthRefCM * math.Pow(p.KVp/100, 1.65)

	s.buildBrems()
	s.buildChar()

	return s, nil
}

// buildBrems fills the Kramers-Whiddington continuum, Eq. 5.10/5.11 of
// the analytical model review.
func (s *spectrum) buildBrems() {
	b := (1 / keVPerJoule) * (4. / (3. * math.Sqrt(3.) * lightSpeed * hbar)) * electronRad / kramersLog
	scale := s.tgt.z / mAsPerElec * b / (4 * math.Pi * spek.RefDistanceCM * spek.RefDistanceCM)

	s.brems = make([]float64, len(s.k))
	for i, k := range s.k {
		s.brems[i] = scale * (s.p.KVp - k) / k
	}
}

// buildChar deposits the target's K lines. The characteristic yield
// ramps with overvoltage above the K edge as a fixed fraction of the
// continuum fluence.
func (s *spectrum) buildChar() {
	s.char = make([]float64, len(s.k))

	if s.p.KVp <= s.tgt.kEdgeKeV {
		return
	}

	fraction := s.tgt.charScale * math.Pow(s.p.KVp/s.tgt.kEdgeKeV-1, s.tgt.charExpo)
	total := specmath.Sum(s.brems) * s.dk * fraction

	weightSum := specmath.Sum(s.tgt.lineWeight)
	if weightSum == 0 || total <= 0 {
		return
	}

	for li, e := range s.tgt.lineKeV {
		bin := int(e / s.dk)
		if bin < 0 || bin >= len(s.k) {
			continue
		}

		s.char[bin] += total * s.tgt.lineWeight[li] / weightSum / s.dk
	}
}

func (s *spectrum) Filter(material string, thicknessMM float64) error {
	return s.applyFilter(spek.Filter{Material: material, ThicknessMM: thicknessMM})
}

func (s *spectrum) MultiFilter(filters []spek.Filter) error {
	for _, f := range filters {
		if err := s.applyFilter(f); err != nil {
			return err
		}
	}

	return nil
}

func (s *spectrum) applyFilter(f spek.Filter) error {
	if f.ThicknessMM < 0 {
		return fmt.Errorf("%w: %s %v mm", spek.ErrNegativeThickness, f.Material, f.ThicknessMM)
	}

	mu, err := xdata.MuOverRhoSpectrum(f.Material, s.k)
	if err != nil {
		return fmt.Errorf("%w: %q", spek.ErrUnknownMaterial, f.Material)
	}

	if f.ThicknessMM == 0 {
		return nil
	}

	rho, _ := xdata.Density(f.Material)
	tCM := f.ThicknessMM / 10

	for i := range s.tau {
		s.tau[i] += mu[i] * rho * tCM
	}

	s.filters = append(s.filters, f)

	return nil
}

func (s *spectrum) Clone() spek.Spectrum {
	c := *s
	c.tau = append([]float64(nil), s.tau...)
	c.filters = append([]spek.Filter(nil), s.filters...)

	return &c
}

func (s *spectrum) SetOffAxis(xCM float64) {
	s.xCM = xCM
}

func (s *spectrum) SetComponents(brems, characteristic bool) {
	s.useBrems = brems
	s.useChar = characteristic
}

func (s *spectrum) Energies() []float64 {
	return append([]float64(nil), s.k...)
}

// eval computes the differential fluence at distance z for the current
// off-axis position and component toggles.
func (s *spectrum) eval(zCM float64) []float64 {
	phi := make([]float64, len(s.k))

	if zCM <= 0 {
		return phi
	}

	alpha := math.Atan(s.xCM / zCM)
	thetaEff := s.p.AnodeAngleDeg*math.Pi/180 + alpha

	// Rays on the anode side steeper than the takeoff angle cannot
	// escape the target.
	if thetaEff <= 0 {
		return phi
	}

	anodePath := s.depthCM / math.Sin(thetaEff)

	oblique := 1.0
	if s.p.Oblique {
		oblique = 1 / math.Cos(alpha)
	}

	ref := spek.RefDistanceCM
	geo := ref * ref / (zCM*zCM + s.xCM*s.xCM)

	for i := range s.k {
		base := 0.0
		if s.useBrems {
			base += s.brems[i]
		}

		if s.useChar {
			base += s.char[i]
		}

		if base == 0 {
			continue
		}

		phi[i] = base * math.Exp(-s.tau[i]*oblique-s.muTarget[i]*anodePath) * geo
	}

	return phi
}

func (s *spectrum) FluenceSpectrum(zCM float64) (k, phi []float64) {
	return s.Energies(), s.eval(zCM)
}

func (s *spectrum) Fluence(zCM float64) float64 {
	return specmath.Sum(s.eval(zCM)) * s.dk
}

func (s *spectrum) EnergyFluence(zCM float64) float64 {
	return specmath.Dot(s.k, s.eval(zCM)) * s.dk
}

func (s *spectrum) Kerma(zCM float64) float64 {
	phi := s.eval(zCM)
	return specmath.Dot3(s.k, phi, s.muEnAir) * s.dk * kermaPerFluence
}

func (s *spectrum) MeanEnergy() float64 {
	return specmath.WeightedMean(s.k, s.eval(spek.RefDistanceCM))
}

// kermaWithExtra returns the kerma at the reference distance after
// adding extraMM of the given linear attenuation curve.
func (s *spectrum) kermaWithExtra(muLin []float64, extraMM float64) float64 {
	phi := s.eval(spek.RefDistanceCM)
	tCM := extraMM / 10

	sum := 0.0
	for i := range phi {
		sum += s.k[i] * phi[i] * s.muEnAir[i] * math.Exp(-muLin[i]*tCM)
	}

	return sum * s.dk * kermaPerFluence
}

// muLinear returns the linear attenuation coefficient per bin for a
// filter material.
func (s *spectrum) muLinear(material string) ([]float64, error) {
	mu, err := xdata.MuOverRhoSpectrum(material, s.k)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", spek.ErrUnknownMaterial, material)
	}

	rho, _ := xdata.Density(material)

	out := make([]float64, len(mu))
	for i := range mu {
		out[i] = mu[i] * rho
	}

	return out, nil
}

// attenuatingThickness finds the material thickness in mm reducing the
// kerma to the given fraction of its unattenuated value.
func (s *spectrum) attenuatingThickness(material string, fraction float64) (float64, error) {
	muLin, err := s.muLinear(material)
	if err != nil {
		return 0, err
	}

	base := s.kermaWithExtra(muLin, 0)
	if base <= 0 {
		return 0, fmt.Errorf("kramers: fully attenuated beam: %w", spek.ErrNoConvergence)
	}

	// Bracket by doubling.
	hi := 1.0
	for s.kermaWithExtra(muLin, hi)/base > fraction {
		hi *= 2
		if hi > 1e4 {
			return 0, fmt.Errorf("kramers: bracketing %v attenuation in %s: %w", fraction, material, spek.ErrNoConvergence)
		}
	}

	lo := 0.0
	for i := 0; i < 80; i++ {
		mid := 0.5 * (lo + hi)
		if s.kermaWithExtra(muLin, mid)/base > fraction {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0.5 * (lo + hi), nil
}

func (s *spectrum) HVL1(material string) (float64, error) {
	return s.attenuatingThickness(material, 0.5)
}

func (s *spectrum) HVL2(material string) (float64, error) {
	quarter, err := s.attenuatingThickness(material, 0.25)
	if err != nil {
		return 0, err
	}

	hvl1, err := s.attenuatingThickness(material, 0.5)
	if err != nil {
		return 0, err
	}

	return quarter - hvl1, nil
}

func (s *spectrum) EffectiveEnergy() (float64, error) {
	hvl1, err := s.HVL1("Al")
	if err != nil {
		return 0, err
	}

	if hvl1 <= 0 {
		return 0, spek.ErrNoConvergence
	}

	// Monoenergetic linear attenuation matching the measured HVL.
	muWant := math.Ln2 / (hvl1 / 10)

	rhoAl, _ := xdata.Density("Al")

	muAt := func(k float64) float64 {
		mu, _ := xdata.MuOverRho("Al", k)
		return mu * rhoAl
	}

	lo, hi := 1.0, 1000.0
	if muAt(lo) < muWant || muAt(hi) > muWant {
		return 0, spek.ErrNoConvergence
	}

	for i := 0; i < 80; i++ {
		mid := 0.5 * (lo + hi)
		if muAt(mid) > muWant {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0.5 * (lo + hi), nil
}

func (s *spectrum) HomogeneityCoefficient() (float64, error) {
	hvl1, err := s.HVL1("Al")
	if err != nil {
		return 0, err
	}

	hvl2, err := s.HVL2("Al")
	if err != nil {
		return 0, err
	}

	if hvl2 <= 0 {
		return 0, spek.ErrNoConvergence
	}

	return hvl1 / hvl2, nil
}

func (s *spectrum) MatchFiltration(material string, targetHVLMM float64) (float64, error) {
	hvlAt := func(extraMM float64) (float64, error) {
		c := s.Clone()
		if err := c.Filter(material, extraMM); err != nil {
			return 0, err
		}

		return c.HVL1(material)
	}

	h0, err := hvlAt(0)
	if err != nil {
		return 0, err
	}

	if targetHVLMM <= h0 {
		if math.Abs(targetHVLMM-h0) < 1e-9 {
			return 0, nil
		}

		return 0, fmt.Errorf("kramers: target HVL %v mm below unfiltered HVL %v mm: %w",
			targetHVLMM, h0, spek.ErrTargetHVL)
	}

	// Adding filtration hardens the beam, so HVL1 grows monotonically
	// with thickness; bracket then bisect.
	hi := 1.0
	for {
		h, err := hvlAt(hi)
		if err != nil {
			return 0, err
		}

		if h >= targetHVLMM {
			break
		}

		hi *= 2
		if hi > 1e4 {
			return 0, fmt.Errorf("kramers: target HVL %v mm unreachable: %w", targetHVLMM, spek.ErrTargetHVL)
		}
	}

	lo := 0.0
	for i := 0; i < 60; i++ {
		mid := 0.5 * (lo + hi)

		h, err := hvlAt(mid)
		if err != nil {
			return 0, err
		}

		if h < targetHVLMM {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0.5 * (lo + hi), nil
}
