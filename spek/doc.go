// Package spek defines the surface of an x-ray spectrum engine: tube
// parameters, filtration, and the queries the dosimetry layers make
// against a generated spectrum (fluence, kerma, half-value layers, mean
// and effective energy).
//
// The package holds types and interfaces only. A ready-to-use analytical
// implementation lives in spek/kramers; a production engine with a full
// physics model can be substituted behind the same Engine interface.
//
// # Usage
//
// Generate a filtered spectrum and read off beam quality:
//
//	eng := kramers.New()
//	s, err := eng.NewSpectrum(spek.Params{KVp: 100, AnodeAngleDeg: 10})
//	if err != nil {
//	    return err
//	}
//	if err := s.Filter("Al", 6.0); err != nil {
//	    return err
//	}
//	hvl1, _ := s.HVL1("Al")
//	kair := s.Kerma(spek.RefDistanceCM)
package spek
