package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "newron.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestPathFromURI(t *testing.T) {
	assert.Equal(t, "/var/lib/newron.db", PathFromURI("sqlite:///var/lib/newron.db"))
	assert.Equal(t, "newron.db", PathFromURI("sqlite://newron.db"))
	assert.Equal(t, "newron.db", PathFromURI("newron.db"))
}

func TestOpenSeedsDefaultExperiment(t *testing.T) {
	s := openStore(t)

	exp, err := s.GetExperiment(context.Background(), tracking.DefaultExperimentID)
	require.NoError(t, err)
	assert.Equal(t, tracking.DefaultExperimentName, exp.Name)
	assert.Equal(t, tracking.LifecycleActive, exp.LifecycleStage)
}

func TestCreateExperiment(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.CreateExperiment(ctx, "vision", "", []tracking.ExperimentTag{{Key: "team", Value: "ml"}})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	exp, err := s.GetExperiment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "vision", exp.Name)
	assert.NotEmpty(t, exp.ArtifactLocation)

	value, ok := exp.Tag("team")
	require.True(t, ok)
	assert.Equal(t, "ml", value)

	_, err = s.CreateExperiment(ctx, "vision", "", nil)
	require.Error(t, err)

	byName, err := s.GetExperimentByName(ctx, "vision")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ExperimentID)
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, tracking.DefaultExperimentID, "first", 1000, []tracking.RunTag{{Key: "env", Value: "ci"}})
	require.NoError(t, err)
	assert.Len(t, run.Info.RunID, 32)
	assert.Equal(t, tracking.StatusRunning, run.Info.Status)
	assert.Equal(t, int64(1000), run.Info.StartTime)

	value, ok := run.Tag("env")
	require.True(t, ok)
	assert.Equal(t, "ci", value)

	require.NoError(t, s.UpdateRun(ctx, run.Info.RunID, tracking.StatusFinished, 2000))

	got, err := s.GetRun(ctx, run.Info.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusFinished, got.Info.Status)
	assert.Equal(t, int64(2000), got.Info.EndTime)

	_, err = s.GetRun(ctx, "missing")
	require.ErrorIs(t, err, tracking.ErrNotFound)
}

func TestMetricsParamsTags(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, tracking.DefaultExperimentID, "", 0, nil)
	require.NoError(t, err)
	runID := run.Info.RunID

	require.NoError(t, s.LogMetric(ctx, runID, tracking.Metric{Key: "loss", Value: 0.9, Timestamp: 1, Step: 0}))
	require.NoError(t, s.LogMetric(ctx, runID, tracking.Metric{Key: "loss", Value: 0.4, Timestamp: 2, Step: 1}))

	history, err := s.GetMetricHistory(ctx, runID, "loss")
	require.NoError(t, err)
	require.Len(t, history, 2)

	got, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	latest, ok := got.Metric("loss")
	require.True(t, ok)
	assert.Equal(t, 0.4, latest.Value)
	assert.Equal(t, int64(1), latest.Step)

	require.NoError(t, s.LogParam(ctx, runID, tracking.Param{Key: "lr", Value: "0.01"}))
	require.NoError(t, s.LogParam(ctx, runID, tracking.Param{Key: "lr", Value: "0.01"}))
	err = s.LogParam(ctx, runID, tracking.Param{Key: "lr", Value: "0.02"})
	require.ErrorIs(t, err, tracking.ErrParamConflict)

	require.NoError(t, s.SetTag(ctx, runID, tracking.RunTag{Key: "stage", Value: "dev"}))
	require.NoError(t, s.SetTag(ctx, runID, tracking.RunTag{Key: "stage", Value: "prod"}))
	got, err = s.GetRun(ctx, runID)
	require.NoError(t, err)
	value, ok := got.Tag("stage")
	require.True(t, ok)
	assert.Equal(t, "prod", value)

	require.NoError(t, s.DeleteTag(ctx, runID, "stage"))
	err = s.DeleteTag(ctx, runID, "stage")
	require.ErrorIs(t, err, tracking.ErrNotFound)
}

func TestLogBatch(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, tracking.DefaultExperimentID, "", 0, nil)
	require.NoError(t, err)

	err = s.LogBatch(ctx, run.Info.RunID,
		[]tracking.Metric{{Key: "acc", Value: 0.8, Timestamp: 1}},
		[]tracking.Param{{Key: "epochs", Value: "3"}},
		[]tracking.RunTag{{Key: "batch", Value: "yes"}},
	)
	require.NoError(t, err)

	got, err := s.GetRun(ctx, run.Info.RunID)
	require.NoError(t, err)
	_, ok := got.Metric("acc")
	assert.True(t, ok)
	_, ok = got.Param("epochs")
	assert.True(t, ok)
	_, ok = got.Tag("batch")
	assert.True(t, ok)
}

func TestSearchRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	older, err := s.CreateRun(ctx, tracking.DefaultExperimentID, "older", 100, nil)
	require.NoError(t, err)
	newer, err := s.CreateRun(ctx, tracking.DefaultExperimentID, "newer", 200, nil)
	require.NoError(t, err)

	runs, err := s.SearchRuns(ctx, []string{tracking.DefaultExperimentID}, tracking.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.Info.RunID, runs[0].Info.RunID)
	assert.Equal(t, older.Info.RunID, runs[1].Info.RunID)

	require.NoError(t, s.UpdateRun(ctx, older.Info.RunID, tracking.StatusFinished, 300))
	finished, err := s.SearchRuns(ctx, nil, tracking.SearchFilter{Status: tracking.StatusFinished})
	require.NoError(t, err)
	require.Len(t, finished, 1)
	assert.Equal(t, older.Info.RunID, finished[0].Info.RunID)

	limited, err := s.SearchRuns(ctx, nil, tracking.SearchFilter{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSoftDelete(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, tracking.DefaultExperimentID, "", 0, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, run.Info.RunID))

	got, err := s.GetRun(ctx, run.Info.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracking.LifecycleDeleted, got.Info.LifecycleStage)

	active, err := s.SearchRuns(ctx, nil, tracking.SearchFilter{View: tracking.ActiveOnly})
	require.NoError(t, err)
	assert.Empty(t, active)

	deleted, err := s.SearchRuns(ctx, nil, tracking.SearchFilter{View: tracking.DeletedOnly})
	require.NoError(t, err)
	assert.Len(t, deleted, 1)
}

func TestDeleteExperimentCascades(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.CreateExperiment(ctx, "short-lived", "", nil)
	require.NoError(t, err)
	run, err := s.CreateRun(ctx, id, "", 0, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteExperiment(ctx, id))

	exp, err := s.GetExperiment(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tracking.LifecycleDeleted, exp.LifecycleStage)

	got, err := s.GetRun(ctx, run.Info.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracking.LifecycleDeleted, got.Info.LifecycleStage)

	_, err = s.CreateRun(ctx, id, "", 0, nil)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	model, err := s.CreateRegisteredModel(ctx, "churn", "predicts churn")
	require.NoError(t, err)
	assert.Equal(t, "churn", model.Name)

	_, err = s.CreateRegisteredModel(ctx, "churn", "")
	require.ErrorIs(t, err, modelregistry.ErrModelExists)

	v1, err := s.CreateModelVersion(ctx, "churn", "file:///tmp/m1", "run1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, modelregistry.StageNone, v1.CurrentStage)
	assert.Equal(t, modelregistry.StatusReady, v1.Status)

	v2, err := s.CreateModelVersion(ctx, "churn", "file:///tmp/m2", "run2", "")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	_, err = s.TransitionStage(ctx, "churn", 1, modelregistry.StageProduction, false)
	require.NoError(t, err)
	promoted, err := s.TransitionStage(ctx, "churn", 2, modelregistry.StageProduction, true)
	require.NoError(t, err)
	assert.Equal(t, modelregistry.StageProduction, promoted.CurrentStage)

	archived, err := s.GetModelVersion(ctx, "churn", 1)
	require.NoError(t, err)
	assert.Equal(t, modelregistry.StageArchived, archived.CurrentStage)

	_, err = s.TransitionStage(ctx, "churn", 2, "Shipping", false)
	require.Error(t, err)

	versions, err := s.ListModelVersions(ctx, "churn")
	require.NoError(t, err)
	require.Len(t, versions, 2)

	require.NoError(t, s.DeleteRegisteredModel(ctx, "churn"))
	_, err = s.GetRegisteredModel(ctx, "churn")
	require.ErrorIs(t, err, modelregistry.ErrNotFound)
}
