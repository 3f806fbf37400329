package fixture

// RefreshMode selects how much of a namespace's candidate documents get
// written during a refresh.
type RefreshMode string

const (
	RefreshFull        RefreshMode = "FULL"
	RefreshIncremental RefreshMode = "INCREMENTAL"
)

// PlannedWrite is one namespace's refresh outcome: which documents to
// write, and whether the change requires explicit operator approval.
type PlannedWrite struct {
	Namespace        string
	Docs             []map[string]any
	RequiresApproval bool
	Reasons          []string
}

// Plan computes, per namespace, what a refresh would write given drift
// between the currently-stored fixture (prev) and freshly captured
// candidates (candidates). FULL mode writes every candidate document
// (sorted by key); INCREMENTAL writes only added/changed documents. A
// namespace requires approval when it has removed documents, or a field
// that existed in prev no longer appears in any candidate document at the
// same key (a dropped field), per §4.6.
func Plan(mode RefreshMode, prev, candidates CollectionSet) ([]PlannedWrite, error) {
	drift, err := Analyze(prev, candidates)
	if err != nil {
		return nil, err
	}

	candidateByNS := map[string]map[string]map[string]any{}
	for ns, docs := range candidates {
		byKey := map[string]map[string]any{}
		for _, d := range docs {
			k, err := docKey(d)
			if err != nil {
				return nil, err
			}
			byKey[k] = d
		}
		candidateByNS[ns] = byKey
	}

	prevFields := map[string]map[string]struct{}{}
	for _, nm := range BuildNamespaceManifests(prev) {
		set := map[string]struct{}{}
		for _, f := range nm.FieldNames {
			set[f] = struct{}{}
		}
		prevFields[nm.Namespace] = set
	}
	nextFields := map[string]map[string]struct{}{}
	for _, nm := range BuildNamespaceManifests(candidates) {
		set := map[string]struct{}{}
		for _, f := range nm.FieldNames {
			set[f] = struct{}{}
		}
		nextFields[nm.Namespace] = set
	}

	var out []PlannedWrite
	for _, nd := range drift.Namespaces {
		pw := PlannedWrite{Namespace: nd.Namespace}

		if nd.Removed > 0 {
			pw.RequiresApproval = true
			pw.Reasons = append(pw.Reasons, "namespace has removed documents")
		}
		for f := range prevFields[nd.Namespace] {
			if _, ok := nextFields[nd.Namespace][f]; !ok {
				pw.RequiresApproval = true
				pw.Reasons = append(pw.Reasons, "field "+f+" no longer present")
			}
		}

		byKey := candidateByNS[nd.Namespace]
		switch mode {
		case RefreshFull:
			for _, d := range nd.Docs {
				if d.Status == DriftRemoved {
					continue
				}
				pw.Docs = append(pw.Docs, byKey[d.Key])
			}
		default: // RefreshIncremental
			for _, d := range nd.Docs {
				if d.Status == DriftAdded || d.Status == DriftChanged {
					pw.Docs = append(pw.Docs, byKey[d.Key])
				}
			}
		}
		out = append(out, pw)
	}
	return out, nil
}

// Apply returns the subset of plans actually writable: every plan that does
// not require approval, plus (only when approved is true) every plan that
// does. It refuses to silently drop a breaking change: call Apply(plans,
// false) first, inspect which plans were excluded via RequiresApproval, and
// only pass approved=true once an operator has signed off.
func Apply(plans []PlannedWrite, approved bool) []PlannedWrite {
	var out []PlannedWrite
	for _, p := range plans {
		if p.RequiresApproval && !approved {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Merge computes the full CollectionSet a refresh would persist: prev,
// overlaid by whichever plans Apply(plans, approved) allows through (a
// namespace requiring approval that wasn't approved keeps its prev
// documents unchanged). FULL-mode namespaces are replaced wholesale;
// INCREMENTAL-mode namespaces are merged by docKey so untouched documents
// survive alongside the added/changed ones.
func Merge(mode RefreshMode, prev, candidates CollectionSet, approved bool) (CollectionSet, []PlannedWrite, error) {
	plans, err := Plan(mode, prev, candidates)
	if err != nil {
		return nil, nil, err
	}
	applied := Apply(plans, approved)
	appliedByNS := make(map[string]PlannedWrite, len(applied))
	for _, p := range applied {
		appliedByNS[p.Namespace] = p
	}

	result := CollectionSet{}
	for ns, docs := range prev {
		result[ns] = docs
	}
	for ns := range candidates {
		if _, ok := result[ns]; !ok {
			result[ns] = nil
		}
	}

	for ns, p := range appliedByNS {
		if mode == RefreshFull {
			result[ns] = p.Docs
			continue
		}
		byKey := make(map[string]map[string]any, len(result[ns])+len(p.Docs))
		for _, d := range result[ns] {
			k, err := docKey(d)
			if err != nil {
				return nil, nil, err
			}
			byKey[k] = d
		}
		for _, d := range p.Docs {
			k, err := docKey(d)
			if err != nil {
				return nil, nil, err
			}
			byKey[k] = d
		}
		merged := make([]map[string]any, 0, len(byKey))
		for _, d := range byKey {
			merged = append(merged, d)
		}
		result[ns] = merged
	}
	return result, plans, nil
}
