package tracking

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

const maxKeyLength = 250

// Client is the low-level tracking API: a validated front over a Store.
// Unlike the fluent package-level API, a Client carries no active-run state
// and is safe for concurrent use.
type Client struct {
	store Store
}

// NewClient opens the backend for the tracking URI and wraps it in a Client.
// The backend package for the URI's scheme must be imported.
func NewClient(uri string, opts StoreOptions) (*Client, error) {
	store, err := OpenStore(uri, opts)
	if err != nil {
		return nil, err
	}

	return &Client{store: store}, nil
}

// NewClientWithStore wraps an already-open Store. The caller keeps ownership
// of the store's lifecycle unless Close is called on the client.
func NewClientWithStore(store Store) *Client {
	return &Client{store: store}
}

// Close releases the underlying store.
func (c *Client) Close() error {
	return c.store.Close()
}

// Store exposes the underlying store for packages layered on top of the
// client, such as the model registry passthrough.
func (c *Client) Store() Store {
	return c.store
}

// CreateExperiment creates a named experiment and returns its ID.
func (c *Client) CreateExperiment(ctx context.Context, name string, tags ...ExperimentTag) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("tracking: experiment name is required")
	}

	return c.store.CreateExperiment(ctx, name, "", tags)
}

// GetExperiment returns the experiment with the given ID.
func (c *Client) GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	return c.store.GetExperiment(ctx, id)
}

// GetExperimentByName returns the active experiment with the given name.
func (c *Client) GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	return c.store.GetExperimentByName(ctx, name)
}

// ListExperiments returns active experiments ordered by ID.
func (c *Client) ListExperiments(ctx context.Context) ([]*Experiment, error) {
	return c.store.ListExperiments(ctx, ActiveOnly)
}

// DeleteExperiment soft-deletes an experiment and its runs.
func (c *Client) DeleteExperiment(ctx context.Context, id string) error {
	return c.store.DeleteExperiment(ctx, id)
}

// SetExperimentTag sets a tag on an experiment.
func (c *Client) SetExperimentTag(ctx context.Context, id string, tag ExperimentTag) error {
	if err := validateKey("tag", tag.Key); err != nil {
		return err
	}

	return c.store.SetExperimentTag(ctx, id, tag)
}

// CreateRun starts a new run in the experiment with status RUNNING.
func (c *Client) CreateRun(ctx context.Context, experimentID, name string, tags ...RunTag) (*Run, error) {
	for _, t := range tags {
		if err := validateKey("tag", t.Key); err != nil {
			return nil, err
		}
	}

	return c.store.CreateRun(ctx, experimentID, name, nowMillis(), tags)
}

// GetRun returns the run with the given ID, including its latest metrics,
// params, and tags.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	return c.store.GetRun(ctx, runID)
}

// SetTerminated marks the run as ended with the given status. An empty
// status defaults to FINISHED.
func (c *Client) SetTerminated(ctx context.Context, runID string, status RunStatus) error {
	if status == "" {
		status = StatusFinished
	}
	if err := validateStatus(status); err != nil {
		return err
	}

	return c.store.UpdateRun(ctx, runID, status, nowMillis())
}

// DeleteRun soft-deletes a run.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	return c.store.DeleteRun(ctx, runID)
}

// SearchRuns returns runs from the given experiments, newest first.
func (c *Client) SearchRuns(ctx context.Context, experimentIDs []string, filter SearchFilter) ([]*Run, error) {
	if filter.Status != "" {
		if err := validateStatus(filter.Status); err != nil {
			return nil, err
		}
	}

	return c.store.SearchRuns(ctx, experimentIDs, filter)
}

// LogMetric logs a metric point with the current timestamp.
func (c *Client) LogMetric(ctx context.Context, runID, key string, value float64, step int64) error {
	if err := validateKey("metric", key); err != nil {
		return err
	}

	return c.store.LogMetric(ctx, runID, Metric{Key: key, Value: value, Timestamp: nowMillis(), Step: step})
}

// LogParam logs a write-once param. Logging the same key with the same value
// again is a no-op; a different value is an error.
func (c *Client) LogParam(ctx context.Context, runID, key, value string) error {
	if err := validateKey("param", key); err != nil {
		return err
	}

	return c.store.LogParam(ctx, runID, Param{Key: key, Value: value})
}

// SetTag sets a tag on a run, overwriting any previous value.
func (c *Client) SetTag(ctx context.Context, runID, key, value string) error {
	if err := validateKey("tag", key); err != nil {
		return err
	}

	return c.store.SetTag(ctx, runID, RunTag{Key: key, Value: value})
}

// DeleteTag removes a tag from a run.
func (c *Client) DeleteTag(ctx context.Context, runID, key string) error {
	if err := validateKey("tag", key); err != nil {
		return err
	}

	return c.store.DeleteTag(ctx, runID, key)
}

// LogBatch logs metrics, params, and tags in a single store call. Metrics
// are stamped with the current time when their Timestamp is zero.
func (c *Client) LogBatch(ctx context.Context, runID string, metrics []Metric, params []Param, tags []RunTag) error {
	now := nowMillis()

	stamped := make([]Metric, len(metrics))
	for i, m := range metrics {
		if err := validateKey("metric", m.Key); err != nil {
			return err
		}
		if m.Timestamp == 0 {
			m.Timestamp = now
		}
		stamped[i] = m
	}
	for _, p := range params {
		if err := validateKey("param", p.Key); err != nil {
			return err
		}
	}
	for _, t := range tags {
		if err := validateKey("tag", t.Key); err != nil {
			return err
		}
	}

	return c.store.LogBatch(ctx, runID, stamped, params, tags)
}

// GetMetricHistory returns every logged point for the metric, in log order.
func (c *Client) GetMetricHistory(ctx context.Context, runID, key string) ([]Metric, error) {
	if err := validateKey("metric", key); err != nil {
		return nil, err
	}

	return c.store.GetMetricHistory(ctx, runID, key)
}

// GetArtifactURI returns the run's artifact location.
func (c *Client) GetArtifactURI(ctx context.Context, runID string) (string, error) {
	run, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return "", err
	}

	return run.Info.ArtifactURI, nil
}

// validateKey enforces the shared rules for metric, param, and tag keys:
// non-empty, at most 250 characters, and free of control characters.
func validateKey(kind, key string) error {
	if key == "" {
		return fmt.Errorf("tracking: %s key is required", kind)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("tracking: %s key %q exceeds %d characters", kind, key[:32]+"...", maxKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return fmt.Errorf("tracking: %s key %q contains a control character", kind, key)
		}
	}

	return nil
}

func validateStatus(status RunStatus) error {
	switch status {
	case StatusRunning, StatusFinished, StatusFailed, StatusKilled:
		return nil
	default:
		return fmt.Errorf("tracking: unknown run status %q", status)
	}
}
