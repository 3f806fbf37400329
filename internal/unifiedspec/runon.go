// Package unifiedspec imports the unified-spec corpus, filters and orders it
// deterministically, and drives the Differential Harness over the result
// (§4.5).
package unifiedspec

import (
	"github.com/midagedev/jongodb-differ/internal/semver"
)

// RunOnContext is obtained once per run from the reference server's
// buildInfo+hello.
type RunOnContext struct {
	ServerVersion string
	Topology      string // single, replicaset, sharded, load-balanced
	Serverless    bool
}

// RunOnRequirement is one runOn entry a spec case may declare.
type RunOnRequirement struct {
	MinServerVersion string
	MaxServerVersion string
	Topologies       []string
	Serverless       *bool
}

// Satisfied reports whether ctx meets this requirement.
func (r RunOnRequirement) Satisfied(ctx RunOnContext) bool {
	if v, ok := semver.Parse(ctx.ServerVersion); ok {
		if !semver.InRange(v, r.MinServerVersion, r.MaxServerVersion) {
			return false
		}
	}
	if len(r.Topologies) > 0 && !containsString(r.Topologies, ctx.Topology) {
		return false
	}
	if r.Serverless != nil && *r.Serverless != ctx.Serverless {
		return false
	}
	return true
}

// AnySatisfied reports whether ctx satisfies at least one of requirements,
// or true if requirements is empty (no constraint declared).
func AnySatisfied(requirements []RunOnRequirement, ctx RunOnContext) bool {
	if len(requirements) == 0 {
		return true
	}
	for _, r := range requirements {
		if r.Satisfied(ctx) {
			return true
		}
	}
	return false
}

func containsString(items []string, target string) bool {
	for _, i := range items {
		if i == target {
			return true
		}
	}
	return false
}
