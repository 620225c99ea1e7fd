package tracking_test

import (
	"context"
	"testing"

	"github.com/newronai/newron-go/pkg/tracking"
	_ "github.com/newronai/newron-go/pkg/tracking/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFluent(t *testing.T) {
	t.Helper()

	tracking.ResetFluent()
	t.Cleanup(tracking.ResetFluent)
	tracking.SetTrackingURI("file://" + t.TempDir())
}

func TestTrackingURIFallbackChain(t *testing.T) {
	tracking.ResetFluent()
	t.Cleanup(tracking.ResetFluent)

	assert.Equal(t, tracking.DefaultTrackingDir, tracking.GetTrackingURI())

	t.Setenv("NEWRON_TRACKING_URI", "file:///tmp/env-runs")
	assert.Equal(t, "file:///tmp/env-runs", tracking.GetTrackingURI())

	tracking.SetTrackingURI("file:///tmp/explicit")
	assert.Equal(t, "file:///tmp/explicit", tracking.GetTrackingURI())
}

func TestRegistryURIFallsBackToTracking(t *testing.T) {
	setupFluent(t)

	assert.Equal(t, tracking.GetTrackingURI(), tracking.GetRegistryURI())

	tracking.SetRegistryURI("sqlite:///tmp/registry.db")
	assert.Equal(t, "sqlite:///tmp/registry.db", tracking.GetRegistryURI())
}

func TestStartRunRejectsDoubleStart(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	run, err := tracking.StartRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, tracking.CurrentRun())
	assert.Equal(t, run.ID(), tracking.CurrentRun().ID())

	_, err = tracking.StartRun(ctx)
	require.Error(t, err)

	require.NoError(t, tracking.EndRun(ctx))
	assert.Nil(t, tracking.CurrentRun())
}

func TestNestedRunTagsParent(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	parent, err := tracking.StartRun(ctx)
	require.NoError(t, err)

	child, err := tracking.StartRun(ctx, tracking.WithNested())
	require.NoError(t, err)

	client, err := tracking.DefaultClient()
	require.NoError(t, err)

	got, err := client.GetRun(ctx, child.ID())
	require.NoError(t, err)
	parentID, ok := got.Tag(tracking.TagParentRunID)
	require.True(t, ok)
	assert.Equal(t, parent.ID(), parentID)

	// Ending the child restores the parent as the active run.
	require.NoError(t, tracking.EndRun(ctx))
	require.NotNil(t, tracking.CurrentRun())
	assert.Equal(t, parent.ID(), tracking.CurrentRun().ID())

	require.NoError(t, tracking.EndRun(ctx))
	assert.Nil(t, tracking.CurrentRun())
}

func TestEndRunWithStatus(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	run, err := tracking.StartRun(ctx)
	require.NoError(t, err)

	require.NoError(t, tracking.EndRunWithStatus(ctx, tracking.StatusFailed))

	client, err := tracking.DefaultClient()
	require.NoError(t, err)
	got, err := client.GetRun(ctx, run.ID())
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusFailed, got.Info.Status)
}

func TestSetExperimentGetOrCreate(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	exp, err := tracking.SetExperiment(ctx, "churn-model")
	require.NoError(t, err)
	require.NotEqual(t, tracking.DefaultExperimentID, exp.ExperimentID)

	again, err := tracking.SetExperiment(ctx, "churn-model")
	require.NoError(t, err)
	assert.Equal(t, exp.ExperimentID, again.ExperimentID)

	run, err := tracking.StartRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, exp.ExperimentID, run.Info.ExperimentID)
	require.NoError(t, tracking.EndRun(ctx))
}

func TestExperimentFromEnvName(t *testing.T) {
	setupFluent(t)
	t.Setenv("NEWRON_EXPERIMENT_NAME", "from-env")
	ctx := context.Background()

	run, err := tracking.StartRun(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracking.EndRun(ctx) })

	client, err := tracking.DefaultClient()
	require.NoError(t, err)
	exp, err := client.GetExperimentByName(ctx, "from-env")
	require.NoError(t, err)
	assert.Equal(t, exp.ExperimentID, run.Info.ExperimentID)
}

func TestLoggingAutoStartsAndLastActive(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	require.Nil(t, tracking.CurrentRun())
	require.NoError(t, tracking.LogMetric(ctx, "loss", 0.1, 0))

	active := tracking.CurrentRun()
	require.NotNil(t, active)

	require.NoError(t, tracking.LogParam(ctx, "lr", "0.01"))
	require.NoError(t, tracking.SetTag(ctx, "team", "ml"))
	require.NoError(t, tracking.EndRun(ctx))

	last := tracking.LastActiveRun()
	require.NotNil(t, last)
	assert.Equal(t, active.ID(), last.ID())

	client, err := tracking.DefaultClient()
	require.NoError(t, err)
	got, err := client.GetRun(ctx, last.ID())
	require.NoError(t, err)

	lr, ok := got.Param("lr")
	require.True(t, ok)
	assert.Equal(t, "0.01", lr)
	team, ok := got.Tag("team")
	require.True(t, ok)
	assert.Equal(t, "ml", team)
}

func TestSetExperimentTagFluent(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	exp, err := tracking.SetExperiment(ctx, "tagged")
	require.NoError(t, err)

	require.NoError(t, tracking.SetExperimentTag(ctx, "owner", "platform"))
	require.NoError(t, tracking.SetExperimentTags(ctx, map[string]string{"stage": "dev"}))

	client, err := tracking.DefaultClient()
	require.NoError(t, err)
	got, err := client.GetExperiment(ctx, exp.ExperimentID)
	require.NoError(t, err)

	tags := map[string]string{}
	for _, tag := range got.Tags {
		tags[tag.Key] = tag.Value
	}
	assert.Equal(t, "platform", tags["owner"])
	assert.Equal(t, "dev", tags["stage"])
}

func TestDeleteTagFluent(t *testing.T) {
	setupFluent(t)
	ctx := context.Background()

	_, err := tracking.StartRun(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracking.EndRun(ctx) })

	require.NoError(t, tracking.SetTag(ctx, "tmp", "1"))
	require.NoError(t, tracking.DeleteTag(ctx, "tmp"))

	client, err := tracking.DefaultClient()
	require.NoError(t, err)
	got, err := client.GetRun(ctx, tracking.CurrentRun().ID())
	require.NoError(t, err)
	_, ok := got.Tag("tmp")
	assert.False(t, ok)
}
