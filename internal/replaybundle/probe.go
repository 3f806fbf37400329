// Package replaybundle persists failing scenarios as replayable bundles and
// re-verifies them later against a chosen backend, per §4.4.
package replaybundle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/midagedev/jongodb-differ/internal/backend"
	"github.com/midagedev/jongodb-differ/internal/value"
)

type segmentKind int

const (
	segmentKey segmentKind = iota
	segmentIndex
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

// ReplayProbe is §4.4's probe: a path into the replay state object
// {success, commandResults, errorMessage} rooted at "$", plus the value it
// must equal for a replay to count as a hit.
type ReplayProbe struct {
	Path          string
	ExpectedValue any

	segments []segment
}

// NewReplayProbe parses path and validates it at construction time: an empty
// key segment, an unterminated bracket, or a non-integer index is a
// construction-time error. A missing key or out-of-range index is not an
// error here — it only surfaces as the absent value (null) when Evaluate
// runs against an actual outcome.
func NewReplayProbe(path string, expectedValue any) (ReplayProbe, error) {
	segments, err := parseProbePath(path)
	if err != nil {
		return ReplayProbe{}, fmt.Errorf("replaybundle: %w", err)
	}
	return ReplayProbe{Path: path, ExpectedValue: expectedValue, segments: segments}, nil
}

func parseProbePath(path string) ([]segment, error) {
	if !strings.HasPrefix(path, "$") {
		return nil, fmt.Errorf("probe path %q must start with $", path)
	}
	rest := path[1:]
	var segments []segment
	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			var key string
			if end == -1 {
				key, rest = rest, ""
			} else {
				key, rest = rest[:end], rest[end:]
			}
			if key == "" {
				return nil, fmt.Errorf("probe path %q has an empty key segment", path)
			}
			segments = append(segments, segment{kind: segmentKey, key: key})
		case '[':
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return nil, fmt.Errorf("probe path %q has an unterminated bracket", path)
			}
			idxStr := rest[1:end]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, fmt.Errorf("probe path %q has a non-integer index %q", path, idxStr)
			}
			segments = append(segments, segment{kind: segmentIndex, index: idx})
			rest = rest[end+1:]
		default:
			return nil, fmt.Errorf("probe path %q is malformed at %q", path, rest)
		}
	}
	return segments, nil
}

// Evaluate walks the replay state object along the probe's segments. A
// missing key or out-of-range index yields nil (the absent value), which
// only matches a probe whose expectedValue is also nil.
func (p ReplayProbe) Evaluate(root any) any {
	cur := root
	for _, seg := range p.segments {
		switch seg.kind {
		case segmentKey:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			v, present := m[seg.key]
			if !present {
				return nil
			}
			cur = v
		case segmentIndex:
			arr, ok := cur.([]any)
			if !ok || seg.index < 0 || seg.index >= len(arr) {
				return nil
			}
			cur = arr[seg.index]
		}
	}
	return cur
}

// Matches reports whether outcome's replay state satisfies the probe.
func (p ReplayProbe) Matches(outcome backend.Outcome) bool {
	got := p.Evaluate(replayState(outcome))
	return value.Equal(got, p.ExpectedValue)
}

// replayState builds the {success, commandResults, errorMessage} object the
// probe grammar is defined against.
func replayState(o backend.Outcome) map[string]any {
	results := make([]any, len(o.CommandResults))
	for i, r := range o.CommandResults {
		results[i] = map[string]any(r)
	}
	var errMsg any
	if !o.Success {
		errMsg = o.ErrorMessage
	}
	return map[string]any{
		"success":        o.Success,
		"commandResults": results,
		"errorMessage":   errMsg,
	}
}
