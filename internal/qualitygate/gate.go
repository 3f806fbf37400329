// Package qualitygate evaluates KPI metrics against thresholds and composes
// the domain-specific R1/R2/R3 aggregators on top of that evaluation (spec
// §4.7).
package qualitygate

import (
	"math"
	"sort"
)

// Operator is one of the two comparisons a Gate can apply.
type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
)

// Gate is one named metric-vs-threshold check.
type Gate struct {
	Name      string
	Metric    float64
	Operator  Operator
	Threshold float64
}

// GateResult is the pass/fail outcome of evaluating a Gate.
type GateResult struct {
	Name      string  `json:"name"`
	Metric    float64 `json:"metric"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
	Pass      bool    `json:"pass"`
}

// Evaluate applies g's operator to its metric and threshold.
func Evaluate(g Gate) GateResult {
	var pass bool
	switch g.Operator {
	case OpGTE:
		pass = g.Metric >= g.Threshold
	case OpLTE:
		pass = g.Metric <= g.Threshold
	default:
		pass = false
	}
	return GateResult{Name: g.Name, Metric: g.Metric, Operator: string(g.Operator), Threshold: g.Threshold, Pass: pass}
}

// EvaluateAll evaluates every gate and reports whether all passed.
func EvaluateAll(gates []Gate) ([]GateResult, bool) {
	results := make([]GateResult, 0, len(gates))
	allPass := true
	for _, g := range gates {
		r := Evaluate(g)
		results = append(results, r)
		if !r.Pass {
			allPass = false
		}
	}
	return results, allPass
}

// Percentile returns the pth percentile (p in (0,1]) of samples using
// nearest-rank: sort ascending, take index ceil(n*p)-1 clamped to [0,n-1].
// An empty sample set returns 0.
func Percentile(samples []float64, p float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	idx := int(math.Ceil(float64(n)*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

// Throughput returns ops / (max(1ns, durationNanos) / 1e9).
func Throughput(ops int, durationNanos int64) float64 {
	if durationNanos < 1 {
		durationNanos = 1
	}
	return float64(ops) / (float64(durationNanos) / 1e9)
}

// StandardGates builds the four recommended-default standard gates (§4.7):
// compatibility-pass-rate ≥ t1, flake-rate ≤ t2, p95-latency ≤ t3,
// repro-time-p50 ≤ t4.
func StandardGates(compatPassRate, flakeRate, p95LatencyMillis, reproTimeP50Minutes float64, t1, t2, t3, t4 float64) []Gate {
	return []Gate{
		{Name: "compatibility-pass-rate", Metric: compatPassRate, Operator: OpGTE, Threshold: t1},
		{Name: "flake-rate", Metric: flakeRate, Operator: OpLTE, Threshold: t2},
		{Name: "p95-latency", Metric: p95LatencyMillis, Operator: OpLTE, Threshold: t3},
		{Name: "repro-time-p50", Metric: reproTimeP50Minutes, Operator: OpLTE, Threshold: t4},
	}
}

// DefaultStandardGates applies the recommended defaults: 0.95, 0.005,
// 5.0ms, 5.0min.
func DefaultStandardGates(compatPassRate, flakeRate, p95LatencyMillis, reproTimeP50Minutes float64) []Gate {
	return StandardGates(compatPassRate, flakeRate, p95LatencyMillis, reproTimeP50Minutes, 0.95, 0.005, 5.0, 5.0)
}
