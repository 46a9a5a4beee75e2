package tracker

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMarshalJobConfig(t *testing.T) {
	config := map[string]any{
		"pattern":          map[string]any{"prefix": "logs-"},
		"query":            map[string]any{"match_all": map[string]any{}},
		"fields":           []any{"message", "host"},
		"restore_settings": map[string]any{"index.number_of_replicas": 0},
		"message":          "weekly restore",
		"delete":           true,
		"expected_docs":    1234,
	}

	flat, err := marshalJobConfig(config)
	if err != nil {
		t.Fatalf("marshalJobConfig() error: %v", err)
	}
	if flat["pattern"] != `{"prefix":"logs-"}` {
		t.Errorf("pattern = %v", flat["pattern"])
	}
	if flat["fields"] != `["message","host"]` {
		t.Errorf("fields = %v", flat["fields"])
	}
	if flat["message"] != "weekly restore" {
		t.Errorf("message = %v", flat["message"])
	}
	if flat["delete"] != "true" {
		t.Errorf("delete = %v", flat["delete"])
	}
	if flat["expected_docs"] != 1234 {
		t.Errorf("expected_docs = %v", flat["expected_docs"])
	}
}

func TestJobConfigRoundTrip(t *testing.T) {
	config := map[string]any{
		"pattern":       map[string]any{"prefix": "logs-"},
		"fields":        []any{"message"},
		"message":       "restore",
		"expected_docs": 99,
	}
	flat, err := marshalJobConfig(config)
	if err != nil {
		t.Fatalf("marshalJobConfig() error: %v", err)
	}
	restored, err := unmarshalJobConfig(flat)
	if err != nil {
		t.Fatalf("unmarshalJobConfig() error: %v", err)
	}
	if !reflect.DeepEqual(restored["pattern"], map[string]any{"prefix": "logs-"}) {
		t.Errorf("pattern = %v", restored["pattern"])
	}
	if !reflect.DeepEqual(restored["fields"], []any{"message"}) {
		t.Errorf("fields = %v", restored["fields"])
	}
	if restored["message"] != "restore" || restored["expected_docs"] != 99 {
		t.Errorf("scalars = message:%v expected_docs:%v", restored["message"], restored["expected_docs"])
	}
}

func TestUnmarshalJobConfigBadJSON(t *testing.T) {
	_, err := unmarshalJobConfig(map[string]any{"query": "{not json"})
	if err == nil {
		t.Fatal("unmarshalJobConfig() with bad JSON did not fail")
	}
}

func TestMarshalJobConfigEmpty(t *testing.T) {
	flat, err := marshalJobConfig(nil)
	if err != nil {
		t.Fatalf("marshalJobConfig(nil) error: %v", err)
	}
	if flat != nil {
		t.Errorf("marshalJobConfig(nil) = %v, want nil", flat)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "job.yml")
	if err := os.WriteFile(yamlPath, []byte("message: from yaml\nexpected_docs: 5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	config, err := LoadConfigFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadConfigFile(yaml) error: %v", err)
	}
	if config["message"] != "from yaml" {
		t.Errorf("yaml message = %v", config["message"])
	}

	jsonPath := filepath.Join(dir, "job.json")
	if err := os.WriteFile(jsonPath, []byte(`{"message":"from json"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	config, err = LoadConfigFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadConfigFile(json) error: %v", err)
	}
	if config["message"] != "from json" {
		t.Errorf("json message = %v", config["message"])
	}

	if _, err := LoadConfigFile(filepath.Join(dir, "missing.yml")); err == nil {
		t.Error("LoadConfigFile(missing) did not fail")
	}
}
