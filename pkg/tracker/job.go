package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/untergeek/es-checkpoint/pkg/schema"
	"github.com/untergeek/es-checkpoint/pkg/storage"
)

// Job is the top-level tracker. Its name doubles as the storage document ID,
// so there is never more than one tracking document per job.
type Job struct {
	Trackable

	name       string
	fileConfig map[string]any
	config     map[string]any

	// Aggregation fields populated by the caller as tasks complete.
	Results     []any
	Cleanup     []string
	Indices     []string
	IndexCounts map[string]int
	Total       int
}

// NewJob ensures the tracking index exists, loads any prior run's history
// for this job name, and reconciles stored configuration with the supplied
// one. Stored configuration wins when present; otherwise the supplied
// configuration seeds the job.
func NewJob(ctx context.Context, backend storage.Backend, trackingIndex, name string, config map[string]any, dryRun bool, log *zap.Logger) (*Job, error) {
	if trackingIndex == "" {
		trackingIndex = schema.DefaultTrackingIndex
	}
	j := &Job{
		Trackable:   newTrackable(backend, trackingIndex, name, dryRun, log),
		name:        name,
		fileConfig:  config,
		IndexCounts: map[string]int{},
	}
	j.stub = "Job: " + name
	j.extra = j.extraFields

	if err := j.ensureIndex(ctx); err != nil {
		return nil, err
	}
	if err := j.getHistory(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// Name returns the job name.
func (j *Job) Name() string { return j.name }

// Config returns the effective job configuration after reconciliation.
func (j *Job) Config() map[string]any { return j.config }

func (j *Job) ensureIndex(ctx context.Context) error {
	opts := storage.IndexOptions{
		Settings: schema.IndexSettings(),
		Mappings: schema.StatusMappings(),
	}
	if err := j.backend.EnsureIndex(ctx, j.trackingIndex, opts); err != nil {
		return fatalf(err, "unable to ensure tracking index %q exists", j.trackingIndex)
	}
	return nil
}

func (j *Job) getHistory(ctx context.Context) error {
	doc, err := j.backend.Get(ctx, j.trackingIndex, j.name)
	if err != nil {
		if storage.IsMissingDocument(err) {
			j.log.Debug("no prior history for job", zap.String("job", j.name))
			j.config = j.fileConfig
			return nil
		}
		return fatalf(err, "unable to read history for %s", j.stub)
	}

	j.status = doc
	if raw, ok := doc["config"].(map[string]any); ok && len(raw) > 0 {
		config, cfgErr := unmarshalJobConfig(raw)
		if cfgErr != nil {
			return fatalf(cfgErr, "stored configuration for %s is unreadable", j.stub)
		}
		j.config = config
	} else {
		j.config = j.fileConfig
	}

	j.prevDryRun = boolField(doc, "dry_run")
	if j.prevDryRun {
		j.log.Debug("previous run was a dry run, discarding history", zap.String("job", j.name))
		j.ClearHistory()
	} else {
		j.AdoptStatus()
	}
	return nil
}

func (j *Job) extraFields() storage.Document {
	fields := storage.Document{
		"job":        j.name,
		"join_field": schema.JoinFieldRoot,
		"dry_run":    j.dryRun,
	}
	config, err := marshalJobConfig(j.config)
	if err != nil {
		j.log.Warn("config not serializable, omitting from snapshot",
			zap.String("job", j.name), zap.Error(err))
	} else if len(config) > 0 {
		fields["config"] = config
	}
	return fields
}
