// Package schema holds the tracking-index schema: settings, field mappings,
// and the default index name.
//
// The mappings are part of the stable persisted contract shared with any
// compatible storage layer, so changes here are additive only.
package schema

// DefaultTrackingIndex is the index name used for progress tracking when
// the caller does not supply one.
const DefaultTrackingIndex = "es-checkpoint"

// JoinFieldRoot is the join_field discriminator value marking a job-level
// document as the hierarchy root within a shared container.
const JoinFieldRoot = "job"

// IndexSettings returns index-level settings for the tracking index: a
// single primary shard with replica auto-expansion. The tracking index is a
// low-volume bookkeeping store, not a performance-critical one.
func IndexSettings() map[string]any {
	return map[string]any{
		"index": map[string]any{
			"number_of_shards":     "1",
			"auto_expand_replicas": "0-1",
		},
	}
}

// StatusMappings returns the field mappings for tracking documents.
//
// Identity fields are exact-match keywords, lifecycle flags are booleans,
// timestamps are dates, and log lines are free text. The data payload is
// wildcard (opaque by default), and nested config.* values are stored as
// keywords but not indexed.
func StatusMappings() map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"job":        map[string]any{"type": "keyword"},
			"task":       map[string]any{"type": "keyword"},
			"step":       map[string]any{"type": "keyword"},
			"join_field": map[string]any{"type": "join", "relations": map[string]any{"job": "task"}},
			"cleanup":    map[string]any{"type": "keyword"},
			"completed":  map[string]any{"type": "boolean"},
			"end_time":   map[string]any{"type": "date"},
			"errors":     map[string]any{"type": "boolean"},
			"dry_run":    map[string]any{"type": "boolean"},
			"index":      map[string]any{"type": "keyword"},
			"logs":       map[string]any{"type": "text"},
			"start_time": map[string]any{"type": "date"},
			"data":       map[string]any{"type": "wildcard"},
			"final_name": map[string]any{"type": "keyword"},
		},
		"dynamic_templates": []any{
			map[string]any{
				"configuration": map[string]any{
					"path_match": "config.*",
					"mapping":    map[string]any{"type": "keyword", "index": false},
				},
			},
		},
	}
}
