package dose

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

//go:embed backscatter_water.csv
var backscatterCSV []byte

// ErrBackscatterData is returned when the backscatter data file cannot
// be parsed into a complete 3-D grid.
var ErrBackscatterData = errors.New("dose: malformed backscatter data")

// neutralBSF is used outside the tabulated grid: no correction.
const neutralBSF = 1.0

// BackscatterTable is the monoenergetic water backscatter factor grid
// indexed by source-to-skin distance, photon energy and field diameter.
type BackscatterTable struct {
	ssd []float64
	k   []float64
	d   []float64
	bw  []float64 // len(ssd)*len(k)*len(d), d fastest
}

// LoadBackscatterTable parses the packaged data file.
func LoadBackscatterTable() (*BackscatterTable, error) {
	return ParseBackscatterTable(bytes.NewReader(backscatterCSV))
}

// ParseBackscatterTable reads a backscatter grid in the packaged CSV
// layout: '#' comment lines, a header row, then ssd,k,d,bw rows
// covering the full grid in any order.
func ParseBackscatterTable(r io.Reader) (*BackscatterTable, error) {
	type key struct{ ssd, k, d float64 }

	values := make(map[key]float64)
	ssdSet := make(map[float64]bool)
	kSet := make(map[float64]bool)
	dSet := make(map[float64]bool)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "ssd") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: row %q", ErrBackscatterData, line)
		}

		nums := make([]float64, 4)
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %q: %v", ErrBackscatterData, line, err)
			}

			nums[i] = v
		}

		values[key{nums[0], nums[1], nums[2]}] = nums[3]
		ssdSet[nums[0]] = true
		kSet[nums[1]] = true
		dSet[nums[2]] = true
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dose: reading backscatter data: %w", err)
	}

	t := &BackscatterTable{
		ssd: sortedKeys(ssdSet),
		k:   sortedKeys(kSet),
		d:   sortedKeys(dSet),
	}

	if len(t.ssd) < 2 || len(t.k) < 2 || len(t.d) < 2 {
		return nil, fmt.Errorf("%w: grid too small", ErrBackscatterData)
	}

	t.bw = make([]float64, len(t.ssd)*len(t.k)*len(t.d))

	for si, s := range t.ssd {
		for ki, k := range t.k {
			for di, d := range t.d {
				v, ok := values[key{s, k, d}]
				if !ok {
					return nil, fmt.Errorf("%w: missing node ssd=%v k=%v d=%v", ErrBackscatterData, s, k, d)
				}

				t.bw[t.index(si, ki, di)] = v
			}
		}
	}

	return t, nil
}

func sortedKeys(set map[float64]bool) []float64 {
	out := make([]float64, 0, len(set))
	for v := range set {
		out = append(out, v)
	}

	sort.Float64s(out)

	return out
}

func (t *BackscatterTable) index(si, ki, di int) int {
	return (si*len(t.k)+ki)*len(t.d) + di
}

// bracket returns the lower node index and the interpolation fraction
// for x on the axis, and whether x lies inside the axis range.
func bracket(axis []float64, x float64) (int, float64, bool) {
	n := len(axis)
	if x < axis[0] || x > axis[n-1] {
		return 0, 0, false
	}

	i := sort.SearchFloat64s(axis, x)
	if i < n && axis[i] == x {
		if i == n-1 {
			return i - 1, 1, true
		}

		return i, 0, true
	}

	lo := i - 1

	return lo, (x - axis[lo]) / (axis[lo+1] - axis[lo]), true
}

// Lookup interpolates the backscatter factor trilinearly. Query points
// outside the grid return the neutral factor 1.0.
func (t *BackscatterTable) Lookup(ssdCM, kKeV, dCM float64) float64 {
	si, sf, ok := bracket(t.ssd, ssdCM)
	if !ok {
		return neutralBSF
	}

	ki, kf, ok := bracket(t.k, kKeV)
	if !ok {
		return neutralBSF
	}

	di, df, ok := bracket(t.d, dCM)
	if !ok {
		return neutralBSF
	}

	out := 0.0

	for _, corner := range [8][3]int{
		{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1},
		{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1},
	} {
		w := 1.0
		for axis, bit := range corner {
			f := [3]float64{sf, kf, df}[axis]
			if bit == 1 {
				w *= f
			} else {
				w *= 1 - f
			}
		}

		if w == 0 {
			continue
		}

		out += w * t.bw[t.index(si+corner[0], ki+corner[1], di+corner[2])]
	}

	return out
}

// SpectrumWeighted folds the monoenergetic factors over a fluence
// spectrum with k*phi*muen weights, the standard beam-quality weighting
// for backscatter.
func (t *BackscatterTable) SpectrumWeighted(k, phi, muenAir []float64, ssdCM, dCM float64) float64 {
	n := len(k)
	if len(phi) < n {
		n = len(phi)
	}

	if len(muenAir) < n {
		n = len(muenAir)
	}

	num := 0.0
	den := 0.0

	for i := 0; i < n; i++ {
		w := k[i] * phi[i] * muenAir[i]
		num += w * t.Lookup(ssdCM, k[i], dCM)
		den += w
	}

	if den <= 0 {
		return neutralBSF
	}

	return num / den
}
