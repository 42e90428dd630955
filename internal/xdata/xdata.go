// Package xdata holds the compact photon interaction coefficient tables
// backing the built-in spectrum engine: mass attenuation coefficients
// for the filter, tissue and detector materials the calculators reach
// for, and mass energy-absorption coefficients for air.
//
// Values are tabulated on a coarse 10-300 keV grid and interpolated
// log-log between nodes. Below the grid the first segment's power law is
// extrapolated; above the grid the last value is held. This is a
// tutorial-grade table, not a reference database.
package xdata

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUnknownMaterial is returned when a material has no tabulated data.
var ErrUnknownMaterial = errors.New("xdata: unknown material")

// energyGrid is the tabulation grid in keV, shared by every material.
var energyGrid = []float64{10, 15, 20, 30, 40, 50, 60, 80, 100, 150, 200, 300}

type material struct {
	density   float64   // g/cm3
	muOverRho []float64 // cm2/g on energyGrid
}

var materials = map[string]material{
	"Al": {2.699, []float64{
		26.23, 7.955, 3.441, 1.128, 0.5685, 0.3681,
		0.2778, 0.2018, 0.1704, 0.1378, 0.1223, 0.1042}},
	"Cu": {8.960, []float64{
		215.9, 74.05, 33.79, 10.92, 4.862, 2.613,
		1.593, 0.7630, 0.4584, 0.2217, 0.1559, 0.1119}},
	"Be": {1.848, []float64{
		0.6466, 0.3070, 0.2251, 0.1792, 0.1640, 0.1554,
		0.1493, 0.1401, 0.1328, 0.1190, 0.1089, 0.0946}},
	"Mo": {10.22, []float64{
		85.76, 27.55, 57.31, 19.70, 9.004, 4.880,
		2.991, 1.360, 0.7690, 0.3260, 0.2008, 0.1304}},
	"W": {19.30, []float64{
		96.91, 139.0, 65.73, 22.73, 10.67, 5.949,
		3.713, 7.810, 4.438, 1.581, 0.7844, 0.3238}},
	"Air": {1.205e-3, []float64{
		5.120, 1.614, 0.7779, 0.3538, 0.2485, 0.2080,
		0.1875, 0.1662, 0.1541, 0.1356, 0.1233, 0.1067}},
	"Water": {1.000, []float64{
		5.329, 1.673, 0.8096, 0.3756, 0.2683, 0.2269,
		0.2059, 0.1837, 0.1707, 0.1505, 0.1370, 0.1186}},
	"Soft Tissue": {1.060, []float64{
		5.052, 1.614, 0.7911, 0.3717, 0.2668, 0.2262,
		0.2055, 0.1837, 0.1707, 0.1505, 0.1370, 0.1186}},
	"Bone": {1.920, []float64{
		28.51, 9.032, 4.001, 1.331, 0.6655, 0.4242,
		0.3148, 0.2229, 0.1855, 0.1480, 0.1309, 0.1113}},
	"CsI": {4.510, []float64{
		63.03, 20.99, 9.298, 2.922, 8.046, 4.555,
		2.869, 1.353, 0.7670, 0.3143, 0.1941, 0.1069}},
}

// muEnAir is the mass energy-absorption coefficient for dry air, cm2/g.
var muEnAir = []float64{
	4.742, 1.334, 0.5389, 0.1537, 0.06833, 0.04098,
	0.03041, 0.02407, 0.02325, 0.02496, 0.02672, 0.02872,
}

// Materials returns the tabulated material names, sorted.
func Materials() []string {
	names := make([]string, 0, len(materials))
	for name := range materials {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Known reports whether a material has tabulated coefficients.
func Known(name string) bool {
	_, ok := materials[canonical(name)]
	return ok
}

// Density returns the bulk density of the material in g/cm3.
func Density(name string) (float64, error) {
	m, ok := materials[canonical(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}

	return m.density, nil
}

// MuOverRho returns the mass attenuation coefficient of the material at
// energy kKeV, in cm2/g.
func MuOverRho(name string, kKeV float64) (float64, error) {
	m, ok := materials[canonical(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}

	return interpLogLog(energyGrid, m.muOverRho, kKeV), nil
}

// MuOverRhoSpectrum evaluates MuOverRho on every energy in k.
func MuOverRhoSpectrum(name string, k []float64) ([]float64, error) {
	m, ok := materials[canonical(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, name)
	}

	out := make([]float64, len(k))
	for i, e := range k {
		out[i] = interpLogLog(energyGrid, m.muOverRho, e)
	}

	return out, nil
}

// MuEnAirOverRho returns the mass energy-absorption coefficient of air
// at energy kKeV, in cm2/g.
func MuEnAirOverRho(kKeV float64) float64 {
	return interpLogLog(energyGrid, muEnAir, kKeV)
}

// MuEnAirOverRhoSpectrum evaluates MuEnAirOverRho on every energy in k.
func MuEnAirOverRhoSpectrum(k []float64) []float64 {
	out := make([]float64, len(k))
	for i, e := range k {
		out[i] = MuEnAirOverRho(e)
	}

	return out
}

// canonical maps user spellings onto table keys ("al", "water",
// "tissue" and friends all resolve).
func canonical(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "al", "aluminium", "aluminum":
		return "Al"
	case "cu", "copper":
		return "Cu"
	case "be", "beryllium":
		return "Be"
	case "mo", "molybdenum":
		return "Mo"
	case "w", "tungsten":
		return "W"
	case "air":
		return "Air"
	case "water", "h2o":
		return "Water"
	case "soft tissue", "tissue":
		return "Soft Tissue"
	case "bone", "cortical bone":
		return "Bone"
	case "csi":
		return "CsI"
	default:
		return strings.TrimSpace(name)
	}
}

// interpLogLog interpolates y(x) assuming both axes are log-spaced,
// the usual behavior of photon cross sections between edges.
func interpLogLog(xs, ys []float64, x float64) float64 {
	n := len(xs)
	if x >= xs[n-1] {
		return ys[n-1]
	}

	lo := 0
	if x > xs[0] {
		lo = sort.SearchFloat64s(xs, x) - 1
		if lo < 0 {
			lo = 0
		}

		if lo > n-2 {
			lo = n - 2
		}
	}

	// Below the grid the first segment's slope extrapolates; photon
	// attenuation keeps its photoelectric power law down there.
	x0, x1 := xs[lo], xs[lo+1]
	y0, y1 := ys[lo], ys[lo+1]

	if x <= 0 || y0 <= 0 || y1 <= 0 {
		return y0
	}

	slope := math.Log(y1/y0) / math.Log(x1/x0)

	return y0 * math.Pow(x/x0, slope)
}
