package features

import "math"

// SimpleReturns computes r_t = P_t / P_{t-1} - 1. It returns a slice of length
// len(prices)-1, or nil if there are fewer than two prices. Non-positive
// previous prices yield a zero return.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev <= 0 {
			continue
		}
		out[i-1] = prices[i]/prev - 1
	}
	return out
}

// ChangePct is the percentage move from `from` to `to`.
func ChangePct(from, to float64) float64 {
	if from == 0 {
		return 0
	}
	return (to - from) / from * 100
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev is the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// Covariance is the sample covariance over the common prefix of xs and ys.
func Covariance(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return 0
	}
	mx, my := Mean(xs[:n]), Mean(ys[:n])
	s := 0.0
	for i := 0; i < n; i++ {
		s += (xs[i] - mx) * (ys[i] - my)
	}
	return s / float64(n-1)
}

// Variance is the sample variance.
func Variance(xs []float64) float64 {
	return Covariance(xs, xs)
}

// Pearson is the correlation coefficient over the common prefix. It returns 0
// when either side has no variance.
func Pearson(xs, ys []float64) float64 {
	n := min(len(xs), len(ys))
	if n < 2 {
		return 0
	}
	mx, my := Mean(xs[:n]), Mean(ys[:n])
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	return sxy / math.Sqrt(sxx*syy)
}

// EMA returns the exponential moving average of xs with alpha 2/(window+1),
// seeded with the first value.
func EMA(xs []float64, window int) float64 {
	if len(xs) == 0 {
		return 0
	}
	if window <= 1 {
		return xs[len(xs)-1]
	}
	alpha := 2 / (float64(window) + 1)
	v := xs[0]
	for _, x := range xs[1:] {
		v = x*alpha + v*(1-alpha)
	}
	return v
}

// Finite reports whether every value is a real number.
func Finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
