package schema

import "testing"

func TestIndexSettings(t *testing.T) {
	settings := IndexSettings()
	index, ok := settings["index"].(map[string]any)
	if !ok {
		t.Fatalf("settings = %v, want index block", settings)
	}
	if index["number_of_shards"] != "1" {
		t.Errorf("number_of_shards = %v", index["number_of_shards"])
	}
	if index["auto_expand_replicas"] != "0-1" {
		t.Errorf("auto_expand_replicas = %v", index["auto_expand_replicas"])
	}
}

func TestStatusMappings(t *testing.T) {
	props, ok := StatusMappings()["properties"].(map[string]any)
	if !ok {
		t.Fatal("mappings missing properties block")
	}

	types := map[string]string{
		"job":        "keyword",
		"task":       "keyword",
		"step":       "keyword",
		"completed":  "boolean",
		"errors":     "boolean",
		"dry_run":    "boolean",
		"start_time": "date",
		"end_time":   "date",
		"logs":       "text",
		"join_field": "join",
	}
	for field, want := range types {
		def, ok := props[field].(map[string]any)
		if !ok {
			t.Errorf("field %q missing", field)
			continue
		}
		if def["type"] != want {
			t.Errorf("field %q type = %v, want %q", field, def["type"], want)
		}
	}

	join := props["join_field"].(map[string]any)
	relations, ok := join["relations"].(map[string]any)
	if !ok || relations["job"] != "task" {
		t.Errorf("join relations = %v, want job->task", join["relations"])
	}
}

func TestStatusMappingsConfigNotIndexed(t *testing.T) {
	templates, ok := StatusMappings()["dynamic_templates"].([]any)
	if !ok || len(templates) != 1 {
		t.Fatalf("dynamic_templates = %v", templates)
	}
	entry := templates[0].(map[string]any)["configuration"].(map[string]any)
	if entry["path_match"] != "config.*" {
		t.Errorf("path_match = %v", entry["path_match"])
	}
	mapping := entry["mapping"].(map[string]any)
	if mapping["type"] != "keyword" || mapping["index"] != false {
		t.Errorf("config mapping = %v", mapping)
	}
}
