package qualitygate

import (
	"encoding/json"
	"fmt"
)

// DifferentialReportSummary is the subset of a harness.DifferentialReport
// the R2 scorecard needs, read from its JSON rendering rather than taken as
// a harness.DifferentialReport value.
type DifferentialReportSummary struct {
	Total    int `json:"total"`
	Match    int `json:"match"`
	Mismatch int `json:"mismatch"`
	Errors   int `json:"errors"`
}

// SpringCompatibilityMatrix is a minimal view of the Spring Data MongoDB
// compatibility suite's results JSON.
type SpringCompatibilityMatrix struct {
	TotalTests  int `json:"totalTests"`
	PassedTests int `json:"passedTests"`
}

// PassRate returns passedTests/totalTests, or 0 when totalTests is 0.
func (m SpringCompatibilityMatrix) PassRate() float64 {
	if m.TotalTests == 0 {
		return 0
	}
	return float64(m.PassedTests) / float64(m.TotalTests)
}

// SupportStatus is a feature's static support classification in the R2
// support manifest.
type SupportStatus string

const (
	Supported   SupportStatus = "SUPPORTED"
	Partial     SupportStatus = "PARTIAL"
	Unsupported SupportStatus = "UNSUPPORTED"
)

// FeatureSupport is one row of the static support manifest.
type FeatureSupport struct {
	Feature string        `json:"feature"`
	Status  SupportStatus `json:"status"`
	Note    string        `json:"note,omitempty"`
}

// R2Scorecard is the R2 scorecard's output: the differential and Spring
// gates plus the static support manifest.
type R2Scorecard struct {
	Gates           []GateResult     `json:"gates"`
	AllPass         bool             `json:"allPass"`
	SupportManifest []FeatureSupport `json:"supportManifest"`
}

// ParseDifferentialReportSummary decodes raw differential-report JSON
// (harness.DifferentialReport's shape) into the summary R2 gates on.
func ParseDifferentialReportSummary(raw []byte) (DifferentialReportSummary, error) {
	var dto struct {
		Results []struct {
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return DifferentialReportSummary{}, fmt.Errorf("qualitygate: parse differential report: %w", err)
	}
	var s DifferentialReportSummary
	for _, r := range dto.Results {
		s.Total++
		switch r.Status {
		case "MATCH":
			s.Match++
		case "MISMATCH":
			s.Mismatch++
		case "ERROR":
			s.Errors++
		}
	}
	return s, nil
}

// ParseSpringCompatibilityMatrix decodes raw Spring compatibility matrix
// JSON.
func ParseSpringCompatibilityMatrix(raw []byte) (SpringCompatibilityMatrix, error) {
	var m SpringCompatibilityMatrix
	if err := json.Unmarshal(raw, &m); err != nil {
		return SpringCompatibilityMatrix{}, fmt.Errorf("qualitygate: parse spring compatibility matrix: %w", err)
	}
	return m, nil
}

// RunR2Scorecard gates diffSummary (mismatch=0 & error=0) and spring
// (pass-rate ≥ 0.98), and attaches the given support manifest.
func RunR2Scorecard(diffSummary DifferentialReportSummary, spring SpringCompatibilityMatrix, supportManifest []FeatureSupport) R2Scorecard {
	gates := []Gate{
		{Name: "differential-mismatch-count", Metric: float64(diffSummary.Mismatch), Operator: OpLTE, Threshold: 0},
		{Name: "differential-error-count", Metric: float64(diffSummary.Errors), Operator: OpLTE, Threshold: 0},
		{Name: "spring-pass-rate", Metric: spring.PassRate(), Operator: OpGTE, Threshold: 0.98},
	}
	results, allPass := EvaluateAll(gates)
	return R2Scorecard{Gates: results, AllPass: allPass, SupportManifest: supportManifest}
}

// CanaryProject is one project's canary run result.
type CanaryProject struct {
	Name            string `json:"name"`
	CanaryFailed    bool   `json:"canaryFailed"`
	RollbackAttempted bool `json:"rollbackAttempted"`
	RollbackSucceeded bool `json:"rollbackSucceeded"`
}

// R2CanaryCertification is the R2 canary certification gate's result.
type R2CanaryCertification struct {
	Projects []CanaryProject `json:"projects"`
	Gates    []GateResult    `json:"gates"`
	AllPass  bool            `json:"allPass"`
}

// RunR2CanaryCertification requires ≥3 projects, zero canary failures, and
// a 100% rollback-success rate among projects that attempted one.
func RunR2CanaryCertification(projects []CanaryProject) R2CanaryCertification {
	failures := 0
	rollbackAttempts, rollbackSuccesses := 0, 0
	for _, p := range projects {
		if p.CanaryFailed {
			failures++
		}
		if p.RollbackAttempted {
			rollbackAttempts++
			if p.RollbackSucceeded {
				rollbackSuccesses++
			}
		}
	}
	rollbackRate := 1.0
	if rollbackAttempts > 0 {
		rollbackRate = float64(rollbackSuccesses) / float64(rollbackAttempts)
	}

	gates := []Gate{
		{Name: "canary-project-count", Metric: float64(len(projects)), Operator: OpGTE, Threshold: 3},
		{Name: "canary-failures", Metric: float64(failures), Operator: OpLTE, Threshold: 0},
		{Name: "canary-rollback-success-rate", Metric: rollbackRate, Operator: OpGTE, Threshold: 1.0},
	}
	results, allPass := EvaluateAll(gates)
	return R2CanaryCertification{Projects: projects, Gates: results, AllPass: allPass}
}
