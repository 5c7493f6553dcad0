// Package stats provides the shared numeric contract used by reporting and
// benchmarking over collections of completed synthesis metrics. Aggregates
// over empty samples are absent (nil), never zero.
package stats

import (
	"math"
	"sort"
)

// Sample sizes below which tail percentiles are suppressed. Small samples
// produce misleadingly precise tail estimates.
const (
	MinSampleP95 = 20
	MinSampleP99 = 100
)

// Mean returns the arithmetic mean of values, or nil for an empty sample.
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	return &m
}

// Min returns the smallest value, or nil for an empty sample.
func Min(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return &m
}

// Max returns the largest value, or nil for an empty sample.
func Max(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return &m
}

// StdevPopulation returns the population standard deviation, or nil for an
// empty sample. A single observation yields zero.
func StdevPopulation(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	mean := *Mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	s := math.Sqrt(sq / float64(len(values)))
	return &s
}

// StdevSample returns the sample (n-1) standard deviation, or nil when fewer
// than two observations are present.
func StdevSample(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	mean := *Mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	s := math.Sqrt(sq / float64(len(values)-1))
	return &s
}

// Percentile returns the value at index floor(p*n) of the ascending-sorted
// sample, with p in [0, 1]. Nil for an empty sample. The input is not
// modified.
func Percentile(values []float64, p float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Floor(p * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	v := sorted[idx]
	return &v
}

// P95 returns the 95th percentile, suppressed (nil) for samples smaller than
// MinSampleP95.
func P95(values []float64) *float64 {
	if len(values) < MinSampleP95 {
		return nil
	}
	return Percentile(values, 0.95)
}

// P99 returns the 99th percentile, suppressed (nil) for samples smaller than
// MinSampleP99.
func P99(values []float64) *float64 {
	if len(values) < MinSampleP99 {
		return nil
	}
	return Percentile(values, 0.99)
}

// SuccessRate returns successful/total as a percentage, or nil when total is
// zero.
func SuccessRate(successful, total int) *float64 {
	if total == 0 {
		return nil
	}
	r := float64(successful) / float64(total) * 100
	return &r
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
