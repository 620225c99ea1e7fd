package tracking_test

import (
	"context"
	"testing"

	"github.com/newronai/newron-go/pkg/tracking"
	_ "github.com/newronai/newron-go/pkg/tracking/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileClient(t *testing.T) *tracking.Client {
	t.Helper()

	client, err := tracking.NewClient("file://"+t.TempDir(), tracking.StoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestNewClientUnknownScheme(t *testing.T) {
	_, err := tracking.NewClient("ftp://host/runs", tracking.StoreOptions{})
	require.Error(t, err)
}

func TestClientValidation(t *testing.T) {
	client := newFileClient(t)
	ctx := context.Background()

	_, err := client.CreateExperiment(ctx, "  ")
	require.Error(t, err)

	run, err := client.CreateRun(ctx, tracking.DefaultExperimentID, "")
	require.NoError(t, err)
	runID := run.Info.RunID

	require.Error(t, client.LogMetric(ctx, runID, "", 1, 0))
	require.Error(t, client.LogParam(ctx, runID, "bad\tkey", "v"))
	require.Error(t, client.SetTag(ctx, runID, "", "v"))

	_, err = client.SearchRuns(ctx, nil, tracking.SearchFilter{Status: "PAUSED"})
	require.Error(t, err)
}

func TestSetTerminatedDefaultsToFinished(t *testing.T) {
	client := newFileClient(t)
	ctx := context.Background()

	run, err := client.CreateRun(ctx, tracking.DefaultExperimentID, "")
	require.NoError(t, err)

	require.NoError(t, client.SetTerminated(ctx, run.Info.RunID, ""))

	got, err := client.GetRun(ctx, run.Info.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusFinished, got.Info.Status)
	assert.Greater(t, got.Info.EndTime, int64(0))
}

func TestLogMetricStampsTimestamp(t *testing.T) {
	client := newFileClient(t)
	ctx := context.Background()

	run, err := client.CreateRun(ctx, tracking.DefaultExperimentID, "")
	require.NoError(t, err)

	require.NoError(t, client.LogMetric(ctx, run.Info.RunID, "loss", 0.5, 0))

	history, err := client.GetMetricHistory(ctx, run.Info.RunID, "loss")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Greater(t, history[0].Timestamp, int64(0))
}

func TestLogBatchStampsZeroTimestamps(t *testing.T) {
	client := newFileClient(t)
	ctx := context.Background()

	run, err := client.CreateRun(ctx, tracking.DefaultExperimentID, "")
	require.NoError(t, err)

	err = client.LogBatch(ctx, run.Info.RunID,
		[]tracking.Metric{
			{Key: "a", Value: 1},
			{Key: "b", Value: 2, Timestamp: 777},
		}, nil, nil)
	require.NoError(t, err)

	a, err := client.GetMetricHistory(ctx, run.Info.RunID, "a")
	require.NoError(t, err)
	require.Len(t, a, 1)
	assert.Greater(t, a[0].Timestamp, int64(0))

	b, err := client.GetMetricHistory(ctx, run.Info.RunID, "b")
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, int64(777), b[0].Timestamp)
}

func TestGetArtifactURI(t *testing.T) {
	client := newFileClient(t)
	ctx := context.Background()

	run, err := client.CreateRun(ctx, tracking.DefaultExperimentID, "")
	require.NoError(t, err)

	uri, err := client.GetArtifactURI(ctx, run.Info.RunID)
	require.NoError(t, err)
	assert.NotEmpty(t, uri)

	_, err = client.GetArtifactURI(ctx, "missing")
	require.ErrorIs(t, err, tracking.ErrNotFound)
}
