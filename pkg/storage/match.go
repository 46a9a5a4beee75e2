package storage

import "sort"

// matchDocument applies the shared Query semantics: every term must compare
// equal, and every NotExists field must be absent. The file and memory
// backends use this directly; the bleve backend compiles the same predicate
// into a boolean query, yielding identical match outcomes.
func matchDocument(doc Document, q Query) bool {
	for field, want := range q.Terms {
		got, ok := doc[field]
		if !ok || !termEqual(got, want) {
			return false
		}
	}
	for _, field := range q.NotExists {
		if _, ok := doc[field]; ok {
			return false
		}
	}
	return true
}

// termEqual compares an exact-match term against a stored value. Numeric
// values are compared as float64 so that JSON round-tripped documents
// (where all numbers decode as float64) still match integer terms.
func termEqual(got, want any) bool {
	gf, gok := asFloat(got)
	wf, wok := asFloat(want)
	if gok && wok {
		return gf == wf
	}
	return got == want
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// sortResults orders search hits by document ID so all backends return
// results in the same, deterministic order.
func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
}

// capResults applies the Search size semantics: zero is unbounded, a
// positive size caps the result count.
func capResults(results []Result, size int) []Result {
	if size > 0 && len(results) > size {
		return results[:size]
	}
	return results
}

// cloneDocument returns a shallow copy of doc so callers cannot mutate
// stored state through returned documents.
func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
