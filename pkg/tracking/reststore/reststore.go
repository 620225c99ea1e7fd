// Package reststore talks to a remote Newron tracking server over its REST
// API. It is registered under the "http" and "https" URI schemes; point
// SetTrackingURI (or NEWRON_TRACKING_URI) at the server and every tracking
// call becomes an API request.
package reststore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/newronai/newron-go/pkg/tracking"
)

const apiPrefix = "/api/2.0/newron"

func init() {
	factory := func(uri string, opts tracking.StoreOptions) (tracking.Store, error) {
		return New(uri, opts.Token), nil
	}
	tracking.RegisterStore("http", factory)
	tracking.RegisterStore("https", factory)
}

// Store is a tracking store backed by a remote server.
type Store struct {
	api *api
}

var _ tracking.Store = (*Store)(nil)

// New creates a REST store for the server at baseURL. The token, when
// non-empty, is sent as a bearer Authorization header on every request.
func New(baseURL, token string) *Store {
	return &Store{api: &api{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
	}}
}

// WithHTTPClient replaces the store's HTTP client, mainly for tests.
func (s *Store) WithHTTPClient(c *http.Client) *Store {
	s.api.Client = c

	return s
}

// Close is a no-op; the store holds no persistent connection.
func (s *Store) Close() error { return nil }

// mapErr translates 404 responses into tracking.ErrNotFound so callers can
// branch on errors.Is regardless of backend.
func mapErr(err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound || apiErr.Code == "RESOURCE_DOES_NOT_EXIST" {
			return fmt.Errorf("%s: %w", apiErr.Message, tracking.ErrNotFound)
		}
		if apiErr.Code == "INVALID_PARAMETER_VALUE" && strings.Contains(apiErr.Message, "param") {
			return fmt.Errorf("%s: %w", apiErr.Message, tracking.ErrParamConflict)
		}
	}

	return err
}

// --- experiments ---

func (s *Store) CreateExperiment(ctx context.Context, name, artifactLocation string, tags []tracking.ExperimentTag) (string, error) {
	payload := struct {
		Name             string                   `json:"name"`
		ArtifactLocation string                   `json:"artifact_location,omitempty"`
		Tags             []tracking.ExperimentTag `json:"tags,omitempty"`
	}{name, artifactLocation, tags}

	var resp struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/experiments/create", payload, &resp); err != nil {
		return "", mapErr(err)
	}

	return resp.ExperimentID, nil
}

func (s *Store) GetExperiment(ctx context.Context, id string) (*tracking.Experiment, error) {
	var resp struct {
		Experiment tracking.Experiment `json:"experiment"`
	}
	query := url.Values{"experiment_id": {id}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/experiments/get", query, &resp); err != nil {
		return nil, mapErr(err)
	}

	return &resp.Experiment, nil
}

func (s *Store) GetExperimentByName(ctx context.Context, name string) (*tracking.Experiment, error) {
	var resp struct {
		Experiment tracking.Experiment `json:"experiment"`
	}
	query := url.Values{"experiment_name": {name}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/experiments/get-by-name", query, &resp); err != nil {
		return nil, mapErr(err)
	}

	return &resp.Experiment, nil
}

func (s *Store) ListExperiments(ctx context.Context, view tracking.ViewType) ([]*tracking.Experiment, error) {
	payload := struct {
		ViewType string `json:"view_type"`
	}{viewName(view)}

	var resp struct {
		Experiments []*tracking.Experiment `json:"experiments"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/experiments/search", payload, &resp); err != nil {
		return nil, mapErr(err)
	}

	return resp.Experiments, nil
}

func (s *Store) DeleteExperiment(ctx context.Context, id string) error {
	payload := struct {
		ExperimentID string `json:"experiment_id"`
	}{id}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/experiments/delete", payload, nil))
}

func (s *Store) SetExperimentTag(ctx context.Context, id string, tag tracking.ExperimentTag) error {
	payload := struct {
		ExperimentID string `json:"experiment_id"`
		Key          string `json:"key"`
		Value        string `json:"value"`
	}{id, tag.Key, tag.Value}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/experiments/set-experiment-tag", payload, nil))
}

// --- runs ---

func (s *Store) CreateRun(ctx context.Context, experimentID, name string, startTime int64, tags []tracking.RunTag) (*tracking.Run, error) {
	payload := struct {
		ExperimentID string            `json:"experiment_id"`
		RunName      string            `json:"run_name,omitempty"`
		StartTime    int64             `json:"start_time"`
		Tags         []tracking.RunTag `json:"tags,omitempty"`
	}{experimentID, name, startTime, tags}

	var resp struct {
		Run tracking.Run `json:"run"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/runs/create", payload, &resp); err != nil {
		return nil, mapErr(err)
	}

	return &resp.Run, nil
}

func (s *Store) GetRun(ctx context.Context, runID string) (*tracking.Run, error) {
	var resp struct {
		Run tracking.Run `json:"run"`
	}
	query := url.Values{"run_id": {runID}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/runs/get", query, &resp); err != nil {
		return nil, mapErr(err)
	}

	return &resp.Run, nil
}

func (s *Store) UpdateRun(ctx context.Context, runID string, status tracking.RunStatus, endTime int64) error {
	payload := struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		EndTime int64  `json:"end_time"`
	}{runID, string(status), endTime}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/update", payload, nil))
}

func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	payload := struct {
		RunID string `json:"run_id"`
	}{runID}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/delete", payload, nil))
}

func (s *Store) SearchRuns(ctx context.Context, experimentIDs []string, filter tracking.SearchFilter) ([]*tracking.Run, error) {
	payload := struct {
		ExperimentIDs []string `json:"experiment_ids,omitempty"`
		Status        string   `json:"status,omitempty"`
		ViewType      string   `json:"run_view_type"`
		MaxResults    int      `json:"max_results,omitempty"`
	}{experimentIDs, string(filter.Status), viewName(filter.View), filter.MaxResults}

	var resp struct {
		Runs []*tracking.Run `json:"runs"`
	}
	if err := s.api.PostJSON(ctx, apiPrefix+"/runs/search", payload, &resp); err != nil {
		return nil, mapErr(err)
	}

	return resp.Runs, nil
}

// --- logging ---

func (s *Store) LogMetric(ctx context.Context, runID string, metric tracking.Metric) error {
	payload := struct {
		RunID     string  `json:"run_id"`
		Key       string  `json:"key"`
		Value     float64 `json:"value"`
		Timestamp int64   `json:"timestamp"`
		Step      int64   `json:"step"`
	}{runID, metric.Key, metric.Value, metric.Timestamp, metric.Step}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/log-metric", payload, nil))
}

func (s *Store) LogParam(ctx context.Context, runID string, param tracking.Param) error {
	payload := struct {
		RunID string `json:"run_id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}{runID, param.Key, param.Value}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/log-parameter", payload, nil))
}

func (s *Store) SetTag(ctx context.Context, runID string, tag tracking.RunTag) error {
	payload := struct {
		RunID string `json:"run_id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	}{runID, tag.Key, tag.Value}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/set-tag", payload, nil))
}

func (s *Store) DeleteTag(ctx context.Context, runID, key string) error {
	payload := struct {
		RunID string `json:"run_id"`
		Key   string `json:"key"`
	}{runID, key}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/delete-tag", payload, nil))
}

func (s *Store) LogBatch(ctx context.Context, runID string, metrics []tracking.Metric, params []tracking.Param, tags []tracking.RunTag) error {
	payload := struct {
		RunID   string            `json:"run_id"`
		Metrics []tracking.Metric `json:"metrics,omitempty"`
		Params  []tracking.Param  `json:"params,omitempty"`
		Tags    []tracking.RunTag `json:"tags,omitempty"`
	}{runID, metrics, params, tags}

	return mapErr(s.api.PostJSON(ctx, apiPrefix+"/runs/log-batch", payload, nil))
}

func (s *Store) GetMetricHistory(ctx context.Context, runID, key string) ([]tracking.Metric, error) {
	var resp struct {
		Metrics []tracking.Metric `json:"metrics"`
	}
	query := url.Values{"run_id": {runID}, "metric_key": {key}}
	if err := s.api.GetJSON(ctx, apiPrefix+"/metrics/get-history", query, &resp); err != nil {
		return nil, mapErr(err)
	}

	return resp.Metrics, nil
}

func viewName(view tracking.ViewType) string {
	switch view {
	case tracking.DeletedOnly:
		return "DELETED_ONLY"
	case tracking.All:
		return "ALL"
	default:
		return "ACTIVE_ONLY"
	}
}
