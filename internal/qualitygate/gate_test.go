package qualitygate

import "testing"

func TestEvaluate_GTEAndLTEOperators(t *testing.T) {
	if !Evaluate(Gate{Name: "a", Metric: 0.99, Operator: OpGTE, Threshold: 0.95}).Pass {
		t.Fatalf("expected 0.99 >= 0.95 to pass")
	}
	if Evaluate(Gate{Name: "b", Metric: 0.90, Operator: OpGTE, Threshold: 0.95}).Pass {
		t.Fatalf("expected 0.90 >= 0.95 to fail")
	}
	if !Evaluate(Gate{Name: "c", Metric: 4.0, Operator: OpLTE, Threshold: 5.0}).Pass {
		t.Fatalf("expected 4.0 <= 5.0 to pass")
	}
}

func TestEvaluateAll_AllPassFalseOnAnyFailure(t *testing.T) {
	gates := []Gate{
		{Name: "a", Metric: 1, Operator: OpGTE, Threshold: 0},
		{Name: "b", Metric: 1, Operator: OpLTE, Threshold: 0},
	}
	results, allPass := EvaluateAll(gates)
	if len(results) != 2 || allPass {
		t.Fatalf("expected allPass=false when one gate fails, got %v %+v", allPass, results)
	}
}

func TestPercentile_EmptyReturnsZero(t *testing.T) {
	if Percentile(nil, 0.95) != 0 {
		t.Fatalf("expected 0 for empty samples")
	}
}

func TestPercentile_NearestRankMatchesSpec(t *testing.T) {
	samples := []float64{5, 1, 3, 2, 4}
	if got := Percentile(samples, 1.0); got != 5 {
		t.Fatalf("expected p100 = 5, got %v", got)
	}
	if got := Percentile(samples, 0.2); got != 1 {
		t.Fatalf("expected p20 = 1 (ceil(5*0.2)-1=0), got %v", got)
	}
}

func TestThroughput_FloorsDurationAtOneNanosecond(t *testing.T) {
	if got := Throughput(1000, 0); got != 1e9 {
		t.Fatalf("expected 1e9 ops/sec at floor duration, got %v", got)
	}
	if got := Throughput(2000, 1_000_000_000); got != 2000 {
		t.Fatalf("expected 2000 ops/sec, got %v", got)
	}
}

func TestDefaultStandardGates_UsesRecommendedDefaults(t *testing.T) {
	gates := DefaultStandardGates(0.95, 0.005, 5.0, 5.0)
	results, allPass := EvaluateAll(gates)
	if len(results) != 4 || !allPass {
		t.Fatalf("expected all 4 default gates to pass at the threshold boundary, got %+v", results)
	}
}
