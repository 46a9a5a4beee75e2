package storage

import (
	"testing"
)

func TestMemorySaveGeneratesID(t *testing.T) {
	b := NewMemoryBackend(nil)
	id, err := b.Save(t.Context(), "tracking", "", Document{"job": "nightly"})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if id == "" {
		t.Fatal("Save() returned empty ID")
	}
	doc, err := b.Get(t.Context(), "tracking", id)
	if err != nil {
		t.Fatalf("Get(%q) error: %v", id, err)
	}
	if doc["job"] != "nightly" {
		t.Errorf("doc = %v", doc)
	}
}

func TestMemorySaveUpserts(t *testing.T) {
	b := NewMemoryBackend(nil)
	if _, err := b.Save(t.Context(), "tracking", "d1", Document{"v": "one"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := b.Save(t.Context(), "tracking", "d1", Document{"v": "two"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	doc, err := b.Get(t.Context(), "tracking", "d1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if doc["v"] != "two" {
		t.Errorf("v = %v, want two", doc["v"])
	}
}

func TestMemoryGetErrors(t *testing.T) {
	b := NewMemoryBackend(nil)

	_, err := b.Get(t.Context(), "absent", "d1")
	if !IsMissingIndex(err) {
		t.Errorf("Get() on absent index = %v, want missing-index", err)
	}

	if err := b.EnsureIndex(t.Context(), "tracking", IndexOptions{}); err != nil {
		t.Fatalf("EnsureIndex() error: %v", err)
	}
	_, err = b.Get(t.Context(), "tracking", "d1")
	if !IsMissingDocument(err) {
		t.Errorf("Get() on absent doc = %v, want missing-document", err)
	}
}

func TestMemorySearchIsolatesCaller(t *testing.T) {
	b := NewMemoryBackend(nil)
	if _, err := b.Save(t.Context(), "tracking", "d1", Document{"job": "nightly"}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	results, err := b.Search(t.Context(), "tracking", Query{Terms: map[string]any{"job": "nightly"}}, 0)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	results[0].Doc["job"] = "mutated"

	doc, err := b.Get(t.Context(), "tracking", "d1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if doc["job"] != "nightly" {
		t.Errorf("stored doc mutated: %v", doc)
	}
}
