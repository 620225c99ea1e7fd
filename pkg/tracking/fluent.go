package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/newronai/newron-go/pkg/config"
)

// The fluent API mirrors the notebook-style workflow: one process-wide
// active-run stack, lazily connected to the configured tracking backend.
// It is not safe for concurrent use; callers logging from multiple
// goroutines must serialize themselves or use Client directly.

// ErrNoActiveRun is returned by EndRun when no run is active.
var ErrNoActiveRun = errors.New("tracking: no active run")

// fluentState is the process-wide state behind the fluent API.
type fluentState struct {
	trackingURI  string
	registryURI  string
	token        string
	client       *Client
	experimentID string
	stack        []*ActiveRun
	lastActive   *ActiveRun
}

var fl fluentState

// ActiveRun is a run started through the fluent API. Info is the snapshot
// taken at start; values logged afterwards are visible through GetRun.
type ActiveRun struct {
	Info RunInfo

	parent *ActiveRun
}

// ID returns the run's identifier.
func (a *ActiveRun) ID() string { return a.Info.RunID }

// RunOption configures StartRun.
type RunOption func(*runOptions)

type runOptions struct {
	experimentID string
	runName      string
	nested       bool
	tags         []RunTag
}

// WithExperimentID starts the run in a specific experiment.
func WithExperimentID(id string) RunOption {
	return func(o *runOptions) { o.experimentID = id }
}

// WithRunName names the run.
func WithRunName(name string) RunOption {
	return func(o *runOptions) { o.runName = name }
}

// WithNested starts the run as a child of the current active run. Starting a
// non-nested run while another is active is an error.
func WithNested() RunOption {
	return func(o *runOptions) { o.nested = true }
}

// WithTags sets initial tags on the run.
func WithTags(tags ...RunTag) RunOption {
	return func(o *runOptions) { o.tags = tags }
}

// SetTrackingURI points the fluent API at a tracking backend. It resets the
// lazily-opened client; runs already started keep their original backend.
func SetTrackingURI(uri string) {
	fl.trackingURI = uri
	if fl.client != nil {
		_ = fl.client.Close()
	}
	fl.client = nil
	fl.experimentID = ""
}

// GetTrackingURI returns the effective tracking URI: the one set explicitly,
// or the configured default.
func GetTrackingURI() string {
	if fl.trackingURI != "" {
		return fl.trackingURI
	}

	cfg, err := config.FromEnv()
	if err == nil && cfg.TrackingURI != "" {
		return cfg.TrackingURI
	}

	return DefaultTrackingDir
}

// SetRegistryURI points model registry operations at a separate backend.
func SetRegistryURI(uri string) {
	fl.registryURI = uri
}

// GetRegistryURI returns the registry URI, falling back to the tracking URI.
func GetRegistryURI() string {
	if fl.registryURI != "" {
		return fl.registryURI
	}

	cfg, err := config.FromEnv()
	if err == nil && cfg.RegistryURI != "" {
		return cfg.RegistryURI
	}

	return GetTrackingURI()
}

// DefaultTrackingDir is the local runs directory used when no tracking URI
// is configured.
const DefaultTrackingDir = "./newronruns"

// DefaultClient returns the fluent API's lazily-opened client. Packages
// layered on the fluent surface (projects, models) share it so their runs
// land in the same backend.
func DefaultClient() (*Client, error) {
	if fl.client != nil {
		return fl.client, nil
	}

	cfg, _ := config.FromEnv()
	token := fl.token
	if token == "" {
		token = cfg.TrackingToken
	}

	client, err := NewClient(GetTrackingURI(), StoreOptions{Token: token})
	if err != nil {
		return nil, err
	}
	fl.client = client

	return client, nil
}

// SetExperiment makes the named experiment the default for new fluent runs,
// creating it when it does not exist. It returns the experiment.
func SetExperiment(ctx context.Context, name string) (*Experiment, error) {
	client, err := DefaultClient()
	if err != nil {
		return nil, err
	}

	exp, err := client.GetExperimentByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		var id string
		id, err = client.CreateExperiment(ctx, name)
		if err != nil {
			return nil, err
		}
		exp, err = client.GetExperiment(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	fl.experimentID = exp.ExperimentID

	return exp, nil
}

// defaultExperimentID resolves the experiment new runs land in: the one set
// by SetExperiment or options, then NEWRON_EXPERIMENT_ID, then
// NEWRON_EXPERIMENT_NAME (created on demand), then the default experiment.
func defaultExperimentID(ctx context.Context) (string, error) {
	if fl.experimentID != "" {
		return fl.experimentID, nil
	}

	cfg, _ := config.FromEnv()
	if cfg.ExperimentID != "" {
		return cfg.ExperimentID, nil
	}
	if cfg.ExperimentName != "" {
		exp, err := SetExperiment(ctx, cfg.ExperimentName)
		if err != nil {
			return "", err
		}
		return exp.ExperimentID, nil
	}

	return DefaultExperimentID, nil
}

// StartRun starts a run and makes it the active run. Without WithNested, an
// already-active run is an error; with it, the new run is tagged as a child
// of the current one.
func StartRun(ctx context.Context, opts ...RunOption) (*ActiveRun, error) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	current := activeRun()
	if current != nil && !o.nested {
		return nil, fmt.Errorf("tracking: run %s is already active; end it first or pass WithNested", current.ID())
	}
	if current == nil && o.nested {
		return nil, fmt.Errorf("tracking: WithNested requires an active parent run")
	}

	client, err := DefaultClient()
	if err != nil {
		return nil, err
	}

	experimentID := o.experimentID
	if experimentID == "" {
		experimentID, err = defaultExperimentID(ctx)
		if err != nil {
			return nil, err
		}
	}

	tags := o.tags
	if o.nested {
		tags = append(tags, RunTag{Key: TagParentRunID, Value: current.ID()})
	}

	run, err := client.CreateRun(ctx, experimentID, o.runName, tags...)
	if err != nil {
		return nil, err
	}

	active := &ActiveRun{Info: run.Info, parent: current}
	fl.stack = append(fl.stack, active)
	fl.lastActive = active

	return active, nil
}

// EndRun ends the active run as FINISHED.
func EndRun(ctx context.Context) error {
	return EndRunWithStatus(ctx, StatusFinished)
}

// EndRunWithStatus ends the active run with the given status and pops it off
// the stack, reactivating its parent if the run was nested.
func EndRunWithStatus(ctx context.Context, status RunStatus) error {
	current := activeRun()
	if current == nil {
		return ErrNoActiveRun
	}

	client, err := DefaultClient()
	if err != nil {
		return err
	}

	if err := client.SetTerminated(ctx, current.ID(), status); err != nil {
		return err
	}

	fl.stack = fl.stack[:len(fl.stack)-1]

	return nil
}

// CurrentRun returns the active run, or nil when none is active.
func CurrentRun() *ActiveRun {
	return activeRun()
}

// LastActiveRun returns the most recently started fluent run, ended or not.
func LastActiveRun() *ActiveRun {
	return fl.lastActive
}

func activeRun() *ActiveRun {
	if len(fl.stack) == 0 {
		return nil
	}

	return fl.stack[len(fl.stack)-1]
}

// requireRun returns the active run, starting one in the default experiment
// when none is active. This keeps one-line scripts working: a bare LogMetric
// call implicitly opens a run the way the original fluent surface does.
func requireRun(ctx context.Context) (*ActiveRun, *Client, error) {
	client, err := DefaultClient()
	if err != nil {
		return nil, nil, err
	}

	if current := activeRun(); current != nil {
		return current, client, nil
	}

	run, err := StartRun(ctx)
	if err != nil {
		return nil, nil, err
	}

	return run, client, nil
}

// LogMetric logs a metric point against the active run, starting one if
// needed.
func LogMetric(ctx context.Context, key string, value float64, step int64) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	return client.LogMetric(ctx, run.ID(), key, value, step)
}

// LogMetrics logs several metrics at the same step in one batch.
func LogMetrics(ctx context.Context, metrics map[string]float64, step int64) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	batch := make([]Metric, 0, len(metrics))
	for k, v := range metrics {
		batch = append(batch, Metric{Key: k, Value: v, Step: step})
	}

	return client.LogBatch(ctx, run.ID(), batch, nil, nil)
}

// LogParam logs a write-once param against the active run.
func LogParam(ctx context.Context, key, value string) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	return client.LogParam(ctx, run.ID(), key, value)
}

// LogParams logs several params in one batch.
func LogParams(ctx context.Context, params map[string]string) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	batch := make([]Param, 0, len(params))
	for k, v := range params {
		batch = append(batch, Param{Key: k, Value: v})
	}

	return client.LogBatch(ctx, run.ID(), nil, batch, nil)
}

// SetTag sets a tag on the active run.
func SetTag(ctx context.Context, key, value string) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	return client.SetTag(ctx, run.ID(), key, value)
}

// SetTags sets several tags in one batch.
func SetTags(ctx context.Context, tags map[string]string) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	batch := make([]RunTag, 0, len(tags))
	for k, v := range tags {
		batch = append(batch, RunTag{Key: k, Value: v})
	}

	return client.LogBatch(ctx, run.ID(), nil, nil, batch)
}

// SetExperimentTag sets a tag on the default experiment, resolving it the
// same way StartRun does.
func SetExperimentTag(ctx context.Context, key, value string) error {
	client, err := DefaultClient()
	if err != nil {
		return err
	}

	experimentID, err := defaultExperimentID(ctx)
	if err != nil {
		return err
	}

	return client.SetExperimentTag(ctx, experimentID, ExperimentTag{Key: key, Value: value})
}

// SetExperimentTags sets several tags on the default experiment.
func SetExperimentTags(ctx context.Context, tags map[string]string) error {
	for k, v := range tags {
		if err := SetExperimentTag(ctx, k, v); err != nil {
			return err
		}
	}

	return nil
}

// DeleteTag removes a tag from the active run.
func DeleteTag(ctx context.Context, key string) error {
	run, client, err := requireRun(ctx)
	if err != nil {
		return err
	}

	return client.DeleteTag(ctx, run.ID(), key)
}

// GetArtifactURI returns the active run's artifact location.
func GetArtifactURI(ctx context.Context) (string, error) {
	run, client, err := requireRun(ctx)
	if err != nil {
		return "", err
	}

	return client.GetArtifactURI(ctx, run.ID())
}

// ResetFluent clears the fluent state. Intended for tests; production code
// has no reason to rewind the active-run stack wholesale.
func ResetFluent() {
	if fl.client != nil {
		_ = fl.client.Close()
	}
	fl = fluentState{}
}
