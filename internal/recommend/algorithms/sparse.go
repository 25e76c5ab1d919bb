// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

package algorithms

import "math"

// Vector is a sparse vector keyed by dimension index. Absent keys are
// zero.
type Vector map[int]float64

// Dot returns the dot product of two sparse vectors. Iterates the
// smaller one.
func Dot(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for idx, av := range a {
		if bv, ok := b[idx]; ok {
			sum += av * bv
		}
	}
	return sum
}

// Norm returns the Euclidean norm of a sparse vector.
func Norm(a Vector) float64 {
	var sum float64
	for _, v := range a {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity of two sparse vectors, or 0
// when either has zero norm.
func Cosine(a, b Vector) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Normalize scales a to unit norm in place and returns it. A zero
// vector is returned unchanged.
func Normalize(a Vector) Vector {
	n := Norm(a)
	if n == 0 {
		return a
	}
	for idx := range a {
		a[idx] /= n
	}
	return a
}

// Scale returns a copy of a multiplied by s.
func Scale(a Vector, s float64) Vector {
	out := make(Vector, len(a))
	for idx, v := range a {
		out[idx] = v * s
	}
	return out
}

// AddScaled adds s*b into dst in place.
func AddScaled(dst Vector, b Vector, s float64) {
	for idx, v := range b {
		dst[idx] += v * s
	}
}
