// Package dose computes entrance surface air kerma (ESAK) and beam
// quality for a clinical exposure.
//
// The Calculator wraps a spectrum engine: it generates the filtered
// spectrum for an Exposure, reads air kerma per mAs at the reference
// distance, scales by mAs and the inverse-square distance correction,
// and attaches half-value layers, mean and effective energy, fluence
// and the homogeneity coefficient. When a field diameter is given the
// water backscatter factor is interpolated from a packaged
// monoenergetic table and folded over the spectrum.
//
//	calc, err := dose.New(kramers.New())
//	if err != nil {
//	    return err
//	}
//	res, err := calc.Calculate(dose.Exposure{
//	    KVp: 120, MA: 100, TimeS: 0.1, SSDCM: 180,
//	    Filters: []spek.Filter{{Material: "Al", ThicknessMM: 2.5}},
//	})
package dose
