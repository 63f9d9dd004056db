// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1]. It returns 0
// when the vectors differ in length or either has zero magnitude.
// Both magnitudes share one square root, which keeps integer-valued
// vectors exact (e.g. a score of exactly 0.5).
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / math.Sqrt(na*nb)
}

// CosineMatrix returns m[i][j] = Cosine(rows[i], cols[j]).
func CosineMatrix(rows, cols [][]float64) [][]float64 {
	m := make([][]float64, len(rows))
	for i, r := range rows {
		m[i] = make([]float64, len(cols))
		for j, c := range cols {
			m[i][j] = Cosine(r, c)
		}
	}
	return m
}
