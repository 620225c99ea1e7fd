// Package newron is the top-level experiment tracking surface. It re-exposes
// the fluent tracking API plus model registration, evaluation and project
// execution under one flat namespace, and reports which optional ML
// framework integrations are usable in the current environment.
//
//	newron.SetTrackingURI("file:///home/ml/runs")
//	run, _ := newron.StartRun(ctx)
//	_ = newron.LogParam(ctx, "alpha", "0.5")
//	_ = newron.LogMetric(ctx, "score", 100, 0)
//	_ = newron.EndRun(ctx)
//
// The fluent API is not threadsafe; concurrent callers must provide their
// own mutual exclusion. For a lower level API, use pkg/tracking directly.
//
// Importing this package wires in the file, sqlite and REST tracking
// backends. Every tracking URI scheme those backends register is usable
// out of the box.
package newron

import (
	"context"

	"github.com/newronai/newron-go/pkg/artifacts"
	"github.com/newronai/newron-go/pkg/config"
	"github.com/newronai/newron-go/pkg/flavors"
	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/models"
	"github.com/newronai/newron-go/pkg/projects"
	"github.com/newronai/newron-go/pkg/tracking"

	// Tracking and registry backends self-register by URI scheme.
	_ "github.com/newronai/newron-go/pkg/tracking/filestore"
	_ "github.com/newronai/newron-go/pkg/tracking/reststore"
	_ "github.com/newronai/newron-go/pkg/tracking/sqlitestore"
)

// Core tracking types, re-exported so most programs only import this package.
type (
	ActiveRun    = tracking.ActiveRun
	Client       = tracking.Client
	Run          = tracking.Run
	RunInfo      = tracking.RunInfo
	RunStatus    = tracking.RunStatus
	Experiment   = tracking.Experiment
	Metric       = tracking.Metric
	Param        = tracking.Param
	RunTag       = tracking.RunTag
	SearchFilter = tracking.SearchFilter
	ModelVersion = modelregistry.ModelVersion
	ModelType    = models.ModelType
	Evaluation   = models.Evaluation
)

const (
	StatusRunning  = tracking.StatusRunning
	StatusFinished = tracking.StatusFinished
	StatusFailed   = tracking.StatusFailed
	StatusKilled   = tracking.StatusKilled

	Regressor  = models.Regressor
	Classifier = models.Classifier
)

// NewClient opens a standalone tracking client for the given URI, independent
// of the fluent state.
func NewClient(uri string) (*Client, error) {
	cfg, _ := config.FromEnv()

	return tracking.NewClient(uri, tracking.StoreOptions{Token: cfg.TrackingToken})
}

// URI configuration.

func SetTrackingURI(uri string) { tracking.SetTrackingURI(uri) }
func GetTrackingURI() string    { return tracking.GetTrackingURI() }
func SetRegistryURI(uri string) { tracking.SetRegistryURI(uri) }
func GetRegistryURI() string    { return tracking.GetRegistryURI() }

// Experiment management.

func CreateExperiment(ctx context.Context, name string) (string, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return "", err
	}

	return client.CreateExperiment(ctx, name)
}

func SetExperiment(ctx context.Context, name string) (*Experiment, error) {
	return tracking.SetExperiment(ctx, name)
}

func GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	return client.GetExperiment(ctx, id)
}

func GetExperimentByName(ctx context.Context, name string) (*Experiment, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	return client.GetExperimentByName(ctx, name)
}

func ListExperiments(ctx context.Context) ([]*Experiment, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	return client.ListExperiments(ctx)
}

func DeleteExperiment(ctx context.Context, id string) error {
	client, err := tracking.DefaultClient()
	if err != nil {
		return err
	}

	return client.DeleteExperiment(ctx, id)
}

func SetExperimentTag(ctx context.Context, key, value string) error {
	return tracking.SetExperimentTag(ctx, key, value)
}

func SetExperimentTags(ctx context.Context, tags map[string]string) error {
	return tracking.SetExperimentTags(ctx, tags)
}

// Run lifecycle.

func StartRun(ctx context.Context, opts ...tracking.RunOption) (*ActiveRun, error) {
	return tracking.StartRun(ctx, opts...)
}

func EndRun(ctx context.Context) error { return tracking.EndRun(ctx) }

func EndRunWithStatus(ctx context.Context, status RunStatus) error {
	return tracking.EndRunWithStatus(ctx, status)
}

// CurrentRun returns the innermost active run, or nil.
func CurrentRun() *ActiveRun { return tracking.CurrentRun() }

// LastActiveRun returns the most recently ended or started run, or nil.
func LastActiveRun() *ActiveRun { return tracking.LastActiveRun() }

func GetRun(ctx context.Context, runID string) (*Run, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	return client.GetRun(ctx, runID)
}

func DeleteRun(ctx context.Context, runID string) error {
	client, err := tracking.DefaultClient()
	if err != nil {
		return err
	}

	return client.DeleteRun(ctx, runID)
}

func SearchRuns(ctx context.Context, experimentIDs []string, filter SearchFilter) ([]*Run, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	return client.SearchRuns(ctx, experimentIDs, filter)
}

// Logging. All of these auto-start a run when none is active.

func LogMetric(ctx context.Context, key string, value float64, step int64) error {
	return tracking.LogMetric(ctx, key, value, step)
}

func LogMetrics(ctx context.Context, metrics map[string]float64, step int64) error {
	return tracking.LogMetrics(ctx, metrics, step)
}

func LogParam(ctx context.Context, key, value string) error {
	return tracking.LogParam(ctx, key, value)
}

func LogParams(ctx context.Context, params map[string]string) error {
	return tracking.LogParams(ctx, params)
}

func SetTag(ctx context.Context, key, value string) error {
	return tracking.SetTag(ctx, key, value)
}

func SetTags(ctx context.Context, tags map[string]string) error {
	return tracking.SetTags(ctx, tags)
}

func DeleteTag(ctx context.Context, key string) error {
	return tracking.DeleteTag(ctx, key)
}

// Artifacts.

func GetArtifactURI(ctx context.Context) (string, error) {
	return tracking.GetArtifactURI(ctx)
}

func activeRepository(ctx context.Context) (artifacts.Repository, error) {
	uri, err := tracking.GetArtifactURI(ctx)
	if err != nil {
		return nil, err
	}

	return artifacts.ForURI(uri)
}

// LogArtifact copies a local file into the active run's artifacts under
// artifactPath ("" for the artifact root).
func LogArtifact(ctx context.Context, localPath, artifactPath string) error {
	repo, err := activeRepository(ctx)
	if err != nil {
		return err
	}

	return repo.Log(ctx, localPath, artifactPath)
}

// LogArtifacts copies a local directory tree into the active run's artifacts.
func LogArtifacts(ctx context.Context, localDir, artifactPath string) error {
	repo, err := activeRepository(ctx)
	if err != nil {
		return err
	}

	return repo.LogDir(ctx, localDir, artifactPath)
}

// LogText stores text as an artifact file of the active run.
func LogText(ctx context.Context, text, artifactFile string) error {
	repo, err := activeRepository(ctx)
	if err != nil {
		return err
	}

	return artifacts.LogText(ctx, repo, text, artifactFile)
}

// LogJSON stores a value as a JSON artifact file of the active run.
func LogJSON(ctx context.Context, v any, artifactFile string) error {
	repo, err := activeRepository(ctx)
	if err != nil {
		return err
	}

	return artifacts.LogJSON(ctx, repo, v, artifactFile)
}

// Models and registry.

// RegisterModel registers the model at modelURI (a plain artifact location or
// runs:/<run-id>/<path>) under name in the configured registry, returning the
// new version.
func RegisterModel(ctx context.Context, modelURI, name string) (*ModelVersion, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	cfg, _ := config.FromEnv()
	store, err := modelregistry.OpenStore(GetRegistryURI(), tracking.StoreOptions{Token: cfg.TrackingToken})
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	return modelregistry.RegisterModel(ctx, store, client, modelURI, name)
}

// Evaluate scores predictions against targets and logs the resulting metrics
// to the active run.
func Evaluate(ctx context.Context, modelType ModelType, targets, predictions []float64) (*Evaluation, error) {
	eval, err := models.Evaluate(modelType, targets, predictions)
	if err != nil {
		return nil, err
	}

	if err := tracking.LogMetrics(ctx, eval.Metrics, 0); err != nil {
		return nil, err
	}

	return eval, nil
}

// Projects.

// RunProject executes an entry point of the project at dir under a new
// tracking run and returns the submitted run.
func RunProject(ctx context.Context, dir string, opts projects.RunOptions) (*projects.SubmittedRun, error) {
	client, err := tracking.DefaultClient()
	if err != nil {
		return nil, err
	}

	project, err := projects.Load(dir)
	if err != nil {
		return nil, err
	}

	return projects.Run(ctx, client, GetTrackingURI(), project, opts)
}

// Flavors.

// SupportedModelFlavors returns the names of the optional framework
// integrations whose dependencies are present, in declaration order.
// Detection runs once per process; repeated calls return the same list.
func SupportedModelFlavors(ctx context.Context) []string {
	return flavors.Default().Supported(ctx)
}
