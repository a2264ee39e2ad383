package tensor

import "math"

// Add adds src to dst element-wise.
func Add(dst, src []float32) {
	for i := range dst {
		dst[i] += src[i]
	}
}

func Sigmoid(x float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(float64(-x))))
}

func Tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// LogSumExp returns log(sum(exp(x))) computed around the maximum.
func LogSumExp(x []float32) float64 {
	if len(x) == 0 {
		return math.Inf(-1)
	}
	maxv := float64(x[0])
	for _, v := range x[1:] {
		maxv = math.Max(maxv, float64(v))
	}
	if math.IsInf(maxv, 0) {
		return maxv
	}
	var sum float64
	for _, v := range x {
		sum += math.Exp(float64(v) - maxv)
	}
	return maxv + math.Log(sum)
}
