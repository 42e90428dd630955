// Package specmath provides the scalar vector reductions used when
// collapsing spectra to dose and image-quality metrics.
package specmath

// Sum returns the sum of all elements in x.
// Returns 0 for an empty slice.
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	sum := 0.0
	for i := range x {
		sum += x[i]
	}

	return sum
}

// Dot returns the dot product of a and b: sum(a[i] * b[i]).
// Only the minimum length of the two slices is used.
func Dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}

	return sum
}

// Dot3 returns sum(a[i] * b[i] * c[i]) over the common length of the
// three slices. Spectrum weightings routinely combine energy, fluence
// and a coefficient curve, so the three-way product is worth naming.
func Dot3(a, b, c []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if len(c) < n {
		n = len(c)
	}

	if n == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i] * c[i]
	}

	return sum
}

// WeightedMean returns sum(w[i]*x[i]) / sum(w[i]).
// Returns 0 when the weights sum to zero or either slice is empty.
func WeightedMean(x, w []float64) float64 {
	n := len(x)
	if len(w) < n {
		n = len(w)
	}

	if n == 0 {
		return 0
	}

	num := 0.0
	den := 0.0

	for i := 0; i < n; i++ {
		num += w[i] * x[i]
		den += w[i]
	}

	if den == 0 {
		return 0
	}

	return num / den
}
