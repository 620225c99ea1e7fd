package reststore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
)

func init() {
	factory := func(uri string, opts tracking.StoreOptions) (modelregistry.Store, error) {
		return New(uri, opts.Token), nil
	}
	modelregistry.RegisterStore("http", factory)
	modelregistry.RegisterStore("https", factory)
}

var _ modelregistry.Store = (*Store)(nil)

// mapRegistryErr translates server errors into the registry's sentinels.
func mapRegistryErr(err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusNotFound || apiErr.Code == "RESOURCE_DOES_NOT_EXIST":
			return fmt.Errorf("%s: %w", apiErr.Message, modelregistry.ErrNotFound)
		case apiErr.StatusCode == http.StatusConflict || apiErr.Code == "RESOURCE_ALREADY_EXISTS":
			return fmt.Errorf("%s: %w", apiErr.Message, modelregistry.ErrModelExists)
		}
	}

	return err
}

func (s *Store) CreateRegisteredModel(ctx context.Context, name, description string) (*modelregistry.RegisteredModel, error) {
	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}{name, description}

	var resp struct {
		RegisteredModel modelregistry.RegisteredModel `json:"registered_model"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/registered-models/create", payload, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return &resp.RegisteredModel, nil
}

func (s *Store) GetRegisteredModel(ctx context.Context, name string) (*modelregistry.RegisteredModel, error) {
	var resp struct {
		RegisteredModel modelregistry.RegisteredModel `json:"registered_model"`
	}
	query := url.Values{"name": {name}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/registered-models/get", query, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return &resp.RegisteredModel, nil
}

func (s *Store) ListRegisteredModels(ctx context.Context) ([]*modelregistry.RegisteredModel, error) {
	var resp struct {
		RegisteredModels []*modelregistry.RegisteredModel `json:"registered_models"`
	}
	if err := s.api.GetJSON(ctx, apiPrefix+"/registered-models/list", nil, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return resp.RegisteredModels, nil
}

func (s *Store) DeleteRegisteredModel(ctx context.Context, name string) error {
	payload := struct {
		Name string `json:"name"`
	}{name}

	return mapRegistryErr(s.api.PostJSON(ctx, apiPrefix+"/registered-models/delete", payload, nil))
}

func (s *Store) CreateModelVersion(ctx context.Context, name, source, runID, description string) (*modelregistry.ModelVersion, error) {
	payload := struct {
		Name        string `json:"name"`
		Source      string `json:"source"`
		RunID       string `json:"run_id,omitempty"`
		Description string `json:"description,omitempty"`
	}{name, source, runID, description}

	var resp struct {
		ModelVersion modelregistry.ModelVersion `json:"model_version"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/model-versions/create", payload, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return &resp.ModelVersion, nil
}

func (s *Store) GetModelVersion(ctx context.Context, name string, version int) (*modelregistry.ModelVersion, error) {
	var resp struct {
		ModelVersion modelregistry.ModelVersion `json:"model_version"`
	}
	query := url.Values{"name": {name}, "version": {strconv.Itoa(version)}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/model-versions/get", query, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return &resp.ModelVersion, nil
}

func (s *Store) ListModelVersions(ctx context.Context, name string) ([]*modelregistry.ModelVersion, error) {
	var resp struct {
		ModelVersions []*modelregistry.ModelVersion `json:"model_versions"`
	}
	query := url.Values{"name": {name}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/model-versions/list", query, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return resp.ModelVersions, nil
}

func (s *Store) TransitionStage(ctx context.Context, name string, version int, stage modelregistry.Stage, archiveExisting bool) (*modelregistry.ModelVersion, error) {
	if !modelregistry.ValidStage(stage) {
		return nil, fmt.Errorf("reststore: unknown stage %q", stage)
	}

	payload := struct {
		Name                    string `json:"name"`
		Version                 string `json:"version"`
		Stage                   string `json:"stage"`
		ArchiveExistingVersions bool   `json:"archive_existing_versions"`
	}{name, strconv.Itoa(version), string(stage), archiveExisting}

	var resp struct {
		ModelVersion modelregistry.ModelVersion `json:"model_version"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/model-versions/transition-stage", payload, &resp); err != nil {
		return nil, mapRegistryErr(err)
	}

	return &resp.ModelVersion, nil
}
