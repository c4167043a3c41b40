package neural

import "math"

// Sigmoid is the logistic function written so that neither branch overflows
// for large |x|.
func Sigmoid(x float64) float64 {
	return math.Exp(math.Min(x, 0)) / (1 + math.Exp(-math.Abs(x)))
}
