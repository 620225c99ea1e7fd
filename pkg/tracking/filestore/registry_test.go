package filestore

import (
	"context"
	"testing"

	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRegisteredModel(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	model, err := s.CreateRegisteredModel(ctx, "churn", "predicts churn")
	require.NoError(t, err)
	assert.Equal(t, "churn", model.Name)

	_, err = s.CreateRegisteredModel(ctx, "churn", "")
	assert.ErrorIs(t, err, modelregistry.ErrModelExists)

	_, err = s.GetRegisteredModel(ctx, "missing")
	assert.ErrorIs(t, err, modelregistry.ErrNotFound)
}

func TestModelVersionsIncrement(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateRegisteredModel(ctx, "churn", "")
	require.NoError(t, err)

	v1, err := s.CreateModelVersion(ctx, "churn", "/artifacts/run1/model", "run1", "")
	require.NoError(t, err)
	v2, err := s.CreateModelVersion(ctx, "churn", "/artifacts/run2/model", "run2", "")
	require.NoError(t, err)

	assert.Equal(t, 1, v1.Version)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, modelregistry.StageNone, v1.CurrentStage)
	assert.Equal(t, modelregistry.StatusReady, v1.Status)

	versions, err := s.ListModelVersions(ctx, "churn")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "run1", versions[0].RunID)
}

func TestTransitionStageArchivesExisting(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateRegisteredModel(ctx, "churn", "")
	require.NoError(t, err)
	_, err = s.CreateModelVersion(ctx, "churn", "src1", "run1", "")
	require.NoError(t, err)
	_, err = s.CreateModelVersion(ctx, "churn", "src2", "run2", "")
	require.NoError(t, err)

	_, err = s.TransitionStage(ctx, "churn", 1, modelregistry.StageProduction, false)
	require.NoError(t, err)

	v2, err := s.TransitionStage(ctx, "churn", 2, modelregistry.StageProduction, true)
	require.NoError(t, err)
	assert.Equal(t, modelregistry.StageProduction, v2.CurrentStage)

	v1, err := s.GetModelVersion(ctx, "churn", 1)
	require.NoError(t, err)
	assert.Equal(t, modelregistry.StageArchived, v1.CurrentStage)
}

func TestTransitionStageRejectsUnknownStage(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateRegisteredModel(ctx, "churn", "")
	require.NoError(t, err)
	_, err = s.CreateModelVersion(ctx, "churn", "src", "", "")
	require.NoError(t, err)

	_, err = s.TransitionStage(ctx, "churn", 1, "Shipping", false)
	require.Error(t, err)
}

func TestDeleteRegisteredModel(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.CreateRegisteredModel(ctx, "temp", "")
	require.NoError(t, err)
	require.NoError(t, s.DeleteRegisteredModel(ctx, "temp"))

	_, err = s.GetRegisteredModel(ctx, "temp")
	assert.ErrorIs(t, err, modelregistry.ErrNotFound)

	models, err := s.ListRegisteredModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestRegisterModelService(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	v, err := modelregistry.RegisterModel(ctx, s, nil, "/shared/models/churn", "churn")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Version)
	assert.Equal(t, "/shared/models/churn", v.Source)

	v2, err := modelregistry.RegisterModel(ctx, s, nil, "/shared/models/churn-v2", "churn")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
}
