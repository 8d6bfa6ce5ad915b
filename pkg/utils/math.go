package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// Zero vectors are left unchanged.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= inv
	}
}

// L2Norm returns the Euclidean norm of x.
func L2Norm(x []float32) float32 {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	return float32(math.Sqrt(float64(sum)))
}
