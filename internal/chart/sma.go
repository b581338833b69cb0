package chart

// MovingAverage returns the simple moving average of values over window samples.
// Element i of the result covers values[i : i+window] and is aligned to input
// index i+window-1. The result is empty when there are fewer than window samples.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return []float64{}
	}

	out := make([]float64, 0, len(values)-window+1)

	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}

	return out
}

// Bounds returns the maximum and minimum of values. ok is false for empty input.
func Bounds(values []float64) (high, low float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}

	high, low = values[0], values[0]
	for _, v := range values[1:] {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}

	return high, low, true
}
