package reststore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExperimentSendsAuth(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiPrefix+"/experiments/create", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]string{"experiment_id": "7"})
	}))
	defer srv.Close()

	s := New(srv.URL, "secret").WithHTTPClient(srv.Client())

	id, err := s.CreateExperiment(context.Background(), "vision", "", []tracking.ExperimentTag{{Key: "team", Value: "ml"}})
	require.NoError(t, err)
	assert.Equal(t, "7", id)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "vision", gotBody["name"])
}

func TestGetRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiPrefix+"/runs/get", r.URL.Path)
		require.Equal(t, "abc", r.URL.Query().Get("run_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"run": tracking.Run{Info: tracking.RunInfo{RunID: "abc", Status: tracking.StatusRunning}},
		})
	}))
	defer srv.Close()

	s := New(srv.URL, "").WithHTTPClient(srv.Client())

	run, err := s.GetRun(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", run.Info.RunID)
	assert.Equal(t, tracking.StatusRunning, run.Info.Status)
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error_code": "RESOURCE_DOES_NOT_EXIST",
			"message":    "run missing not found",
		})
	}))
	defer srv.Close()

	s := New(srv.URL, "").WithHTTPClient(srv.Client())

	_, err := s.GetRun(context.Background(), "missing")
	require.ErrorIs(t, err, tracking.ErrNotFound)

	_, err = s.GetRegisteredModel(context.Background(), "missing")
	require.ErrorIs(t, err, modelregistry.ErrNotFound)
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := New(srv.URL, "").WithHTTPClient(srv.Client())

	err := s.LogMetric(context.Background(), "abc", tracking.Metric{Key: "loss", Value: 1})
	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 3*time.Second, rle.RetryAfter)
}

func TestLogBatchPayload(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiPrefix+"/runs/log-batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL, "").WithHTTPClient(srv.Client())

	err := s.LogBatch(context.Background(), "abc",
		[]tracking.Metric{{Key: "loss", Value: 0.5, Timestamp: 1}},
		[]tracking.Param{{Key: "lr", Value: "0.1"}},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "abc", gotBody["run_id"])
	assert.Len(t, gotBody["metrics"], 1)
	assert.Len(t, gotBody["params"], 1)
	assert.Nil(t, gotBody["tags"])
}

func TestTransitionStageRejectsUnknown(t *testing.T) {
	s := New("http://unused", "")

	_, err := s.TransitionStage(context.Background(), "m", 1, "Shipping", false)
	require.Error(t, err)
}

func TestFollowRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, apiPrefix+"/runs/follow", r.URL.Path)
		require.Equal(t, "abc", r.URL.Query().Get("run_id"))

		conn, err := websocket.Accept(w, r, nil)
		require.NoError(t, err)

		ctx := r.Context()
		_ = wsjson.Write(ctx, conn, RunUpdate{Metrics: []tracking.Metric{{Key: "loss", Value: 0.3, Step: 1}}})
		_ = wsjson.Write(ctx, conn, RunUpdate{Metrics: []tracking.Metric{{Key: "loss", Value: 0.2, Step: 2}}})
		_ = conn.Close(websocket.StatusNormalClosure, "done")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := New(srv.URL, "").WithHTTPClient(srv.Client())

	updates, errc, err := s.FollowRun(ctx, "abc")
	require.NoError(t, err)

	var seen []RunUpdate
	for u := range updates {
		seen = append(seen, u)
	}
	require.NoError(t, <-errc)
	require.Len(t, seen, 2)
	assert.Equal(t, 0.2, seen[1].Metrics[0].Value)
}
