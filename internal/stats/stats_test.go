package stats

import (
	"math"
	"testing"
)

func TestMeanMinMax(t *testing.T) {
	values := []float64{4, 1, 3, 2}

	if m := Mean(values); m == nil || *m != 2.5 {
		t.Errorf("mean = %v, want 2.5", m)
	}
	if m := Min(values); m == nil || *m != 1 {
		t.Errorf("min = %v, want 1", m)
	}
	if m := Max(values); m == nil || *m != 4 {
		t.Errorf("max = %v, want 4", m)
	}
}

func TestEmptySampleIsAbsent(t *testing.T) {
	if Mean(nil) != nil || Min(nil) != nil || Max(nil) != nil {
		t.Error("empty sample must yield nil, not zero")
	}
	if Percentile(nil, 0.5) != nil || StdevPopulation(nil) != nil {
		t.Error("empty sample must yield nil percentile and stdev")
	}
	if SuccessRate(0, 0) != nil {
		t.Error("success rate over zero attempts must be nil")
	}
}

func TestStdev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if s := StdevPopulation(values); s == nil || math.Abs(*s-2.0) > 1e-9 {
		t.Errorf("population stdev = %v, want 2", s)
	}
	if s := StdevSample([]float64{5}); s != nil {
		t.Errorf("sample stdev of one value = %v, want nil", s)
	}
	if s := StdevPopulation([]float64{5}); s == nil || *s != 0 {
		t.Errorf("population stdev of one value = %v, want 0", s)
	}
}

func TestPercentileIndexing(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	if p := Percentile(values, 0.5); p == nil || *p != 60 {
		t.Errorf("p50 = %v, want 60 (index floor(0.5*10))", p)
	}
	if p := Percentile(values, 1.0); p == nil || *p != 100 {
		t.Errorf("p100 = %v, want 100 (clamped)", p)
	}
	if p := Percentile(values, 0.0); p == nil || *p != 10 {
		t.Errorf("p0 = %v, want 10", p)
	}
}

func TestTailPercentileSuppression(t *testing.T) {
	sample := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(i)
		}
		return out
	}

	if P95(sample(10)) != nil || P99(sample(10)) != nil {
		t.Error("n=10 must suppress both p95 and p99")
	}
	if P95(sample(25)) == nil {
		t.Error("n=25 must report p95")
	}
	if P99(sample(25)) != nil {
		t.Error("n=25 must suppress p99")
	}
	if P99(sample(120)) == nil {
		t.Error("n=120 must report p99")
	}
}

func TestSuccessRate(t *testing.T) {
	if r := SuccessRate(3, 4); r == nil || *r != 75 {
		t.Errorf("success rate = %v, want 75", r)
	}
	if got := Round2(66.666666); got != 66.67 {
		t.Errorf("Round2 = %v, want 66.67", got)
	}
}
