package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Job configuration travels inside the tracking document as flat strings so
// the storage mapping can keep it unindexed. Structured fields are JSON
// encoded on write and decoded on read; the rest are plain scalars.
var (
	structuredConfigFields = []string{"pattern", "query", "fields", "restore_settings"}
	scalarConfigFields     = []string{"message", "delete", "expected_docs"}
)

// marshalJobConfig flattens a job configuration for persistence. Structured
// values become JSON strings, scalars are stringified, and absent fields are
// omitted.
func marshalJobConfig(config map[string]any) (map[string]any, error) {
	if len(config) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(config))
	for _, field := range structuredConfigFields {
		v, ok := config[field]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr {
			out[field] = s
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode config field %q: %w", field, err)
		}
		out[field] = string(data)
	}
	for _, field := range scalarConfigFields {
		v, ok := config[field]
		if !ok || v == nil {
			continue
		}
		if field == "expected_docs" {
			out[field] = coerceInt(v)
			continue
		}
		out[field] = fmt.Sprint(v)
	}
	return out, nil
}

// unmarshalJobConfig restores a flattened configuration read back from a
// tracking document.
func unmarshalJobConfig(raw map[string]any) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(raw))
	for _, field := range structuredConfigFields {
		v, ok := raw[field]
		if !ok || v == nil {
			continue
		}
		s, isStr := v.(string)
		if !isStr {
			out[field] = v
			continue
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, fmt.Errorf("decode config field %q: %w", field, err)
		}
		out[field] = decoded
	}
	for _, field := range scalarConfigFields {
		v, ok := raw[field]
		if !ok || v == nil {
			continue
		}
		if field == "expected_docs" {
			out[field] = coerceInt(v)
			continue
		}
		out[field] = fmt.Sprint(v)
	}
	return out, nil
}

func coerceInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	}
	return 0
}

// LoadConfigFile reads a job configuration from a YAML or JSON file,
// selected by extension.
func LoadConfigFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	config := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return config, nil
}
