package tracking

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// RunStatus is the execution state of a run.
type RunStatus string

const (
	StatusRunning  RunStatus = "RUNNING"
	StatusFinished RunStatus = "FINISHED"
	StatusFailed   RunStatus = "FAILED"
	StatusKilled   RunStatus = "KILLED"
)

// Lifecycle stages for experiments and runs. Deletion is soft: a deleted
// entity keeps its data but moves to LifecycleDeleted and disappears from
// default listings.
const (
	LifecycleActive  = "active"
	LifecycleDeleted = "deleted"
)

// Metric is a single logged metric point. Timestamp is Unix milliseconds.
type Metric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

// Param is a write-once key-value pair describing a run's inputs.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RunTag is a mutable key-value annotation on a run.
type RunTag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RunInfo holds a run's identity and lifecycle metadata.
type RunInfo struct {
	RunID          string    `json:"run_id"`
	RunName        string    `json:"run_name"`
	ExperimentID   string    `json:"experiment_id"`
	Status         RunStatus `json:"status"`
	StartTime      int64     `json:"start_time"`
	EndTime        int64     `json:"end_time"`
	ArtifactURI    string    `json:"artifact_uri"`
	LifecycleStage string    `json:"lifecycle_stage"`
}

// RunData holds a run's logged values. Metrics contains the latest point per
// key; full history is available through GetMetricHistory.
type RunData struct {
	Metrics []Metric `json:"metrics"`
	Params  []Param  `json:"params"`
	Tags    []RunTag `json:"tags"`
}

// Run pairs a run's metadata with its logged data.
type Run struct {
	Info RunInfo `json:"info"`
	Data RunData `json:"data"`
}

// Tag returns the value of the named tag and whether it is set.
func (r *Run) Tag(key string) (string, bool) {
	for _, t := range r.Data.Tags {
		if t.Key == key {
			return t.Value, true
		}
	}

	return "", false
}

// Param returns the value of the named param and whether it is set.
func (r *Run) Param(key string) (string, bool) {
	for _, p := range r.Data.Params {
		if p.Key == key {
			return p.Value, true
		}
	}

	return "", false
}

// Metric returns the latest point for the named metric and whether any point
// has been logged.
func (r *Run) Metric(key string) (Metric, bool) {
	for _, m := range r.Data.Metrics {
		if m.Key == key {
			return m, true
		}
	}

	return Metric{}, false
}

// Tags reserved by the client. User tags may use any other key.
const (
	TagRunNote      = "newron.note"
	TagSourceName   = "newron.source.name"
	TagProjectName  = "newron.project.name"
	TagProjectEntry = "newron.project.entrypoint"
	TagParentRunID  = "newron.parentRunId"
)

// NewRunID returns a fresh 32-character hex run identifier.
func NewRunID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived identifier rather than panicking mid-experiment.
		now := time.Now().UnixNano()
		for i := range b {
			b[i] = byte(now >> (uint(i%8) * 8))
		}
	}

	return hex.EncodeToString(b[:])
}

// nowMillis returns the current wall clock in Unix milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// LatestOf selects the latest point from a metric history, ordering by step,
// then timestamp, then value. Backends use it to derive a run's latest
// metrics from full histories.
func LatestOf(points []Metric) (Metric, bool) {
	if len(points) == 0 {
		return Metric{}, false
	}

	latest := points[0]
	for _, p := range points[1:] {
		if newerMetric(p, latest) {
			latest = p
		}
	}

	return latest, true
}

// newerMetric reports whether a should replace b as the latest point for a
// key, ordering by step, then timestamp, then value.
func newerMetric(a, b Metric) bool {
	if a.Step != b.Step {
		return a.Step > b.Step
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}

	return a.Value >= b.Value
}
