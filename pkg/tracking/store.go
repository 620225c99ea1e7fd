package tracking

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a run or experiment does not exist.
var ErrNotFound = errors.New("tracking: not found")

// ErrParamConflict is returned when a param key is re-logged with a
// different value. Params are write-once.
var ErrParamConflict = errors.New("tracking: param already logged with a different value")

// ViewType selects which lifecycle stages a listing returns.
type ViewType int

const (
	// ActiveOnly returns entities in the active lifecycle stage.
	ActiveOnly ViewType = iota
	// DeletedOnly returns soft-deleted entities.
	DeletedOnly
	// All returns entities regardless of lifecycle stage.
	All
)

// Matches reports whether a lifecycle stage passes the view filter.
func (v ViewType) Matches(stage string) bool {
	switch v {
	case ActiveOnly:
		return stage == LifecycleActive
	case DeletedOnly:
		return stage == LifecycleDeleted
	default:
		return true
	}
}

// SearchFilter narrows SearchRuns results. Zero values match everything.
type SearchFilter struct {
	Status     RunStatus
	View       ViewType
	MaxResults int
}

// Store is the persistence contract shared by every tracking backend.
// Implementations are safe for concurrent use.
type Store interface {
	// CreateExperiment creates a named experiment and returns its ID.
	// Names are unique among active experiments.
	CreateExperiment(ctx context.Context, name, artifactLocation string, tags []ExperimentTag) (string, error)
	GetExperiment(ctx context.Context, id string) (*Experiment, error)
	GetExperimentByName(ctx context.Context, name string) (*Experiment, error)
	// ListExperiments returns experiments matching the view, ordered by ID.
	ListExperiments(ctx context.Context, view ViewType) ([]*Experiment, error)
	// DeleteExperiment soft-deletes an experiment and its runs.
	DeleteExperiment(ctx context.Context, id string) error
	SetExperimentTag(ctx context.Context, id string, tag ExperimentTag) error

	// CreateRun starts a new run in the experiment with status RUNNING.
	CreateRun(ctx context.Context, experimentID, name string, startTime int64, tags []RunTag) (*Run, error)
	GetRun(ctx context.Context, runID string) (*Run, error)
	// UpdateRun sets the run's status and end time.
	UpdateRun(ctx context.Context, runID string, status RunStatus, endTime int64) error
	DeleteRun(ctx context.Context, runID string) error
	// SearchRuns returns runs from the given experiments, newest first.
	SearchRuns(ctx context.Context, experimentIDs []string, filter SearchFilter) ([]*Run, error)

	LogMetric(ctx context.Context, runID string, metric Metric) error
	LogParam(ctx context.Context, runID string, param Param) error
	SetTag(ctx context.Context, runID string, tag RunTag) error
	DeleteTag(ctx context.Context, runID, key string) error
	// LogBatch applies metrics, params, and tags in one call. Backends
	// apply entries in order; the first failure aborts the remainder.
	LogBatch(ctx context.Context, runID string, metrics []Metric, params []Param, tags []RunTag) error
	GetMetricHistory(ctx context.Context, runID, key string) ([]Metric, error)

	Close() error
}

// StoreOptions carry backend-independent settings into a factory.
type StoreOptions struct {
	// Token authenticates against remote backends. Ignored by local ones.
	Token string
}

// StoreFactory builds a Store for a tracking URI.
type StoreFactory func(uri string, opts StoreOptions) (Store, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]StoreFactory{}
)

// RegisterStore registers a backend factory for a URI scheme. Backends call
// this from init, the way database/sql drivers register themselves; open a
// store by importing the backend package and calling OpenStore.
func RegisterStore(scheme string, factory StoreFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if _, dup := factories[scheme]; dup {
		panic(fmt.Sprintf("tracking: store factory for scheme %q already registered", scheme))
	}
	factories[scheme] = factory
}

// RegisteredSchemes returns the sorted URI schemes with a registered backend.
func RegisteredSchemes() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	schemes := make([]string, 0, len(factories))
	for s := range factories {
		schemes = append(schemes, s)
	}

	sort.Strings(schemes)

	return schemes
}

// OpenStore opens the backend registered for the URI's scheme. A URI with no
// scheme is treated as a local directory path and routed to the "file"
// backend.
func OpenStore(uri string, opts StoreOptions) (Store, error) {
	scheme := uriScheme(uri)

	factoryMu.RLock()
	factory, ok := factories[scheme]
	factoryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("tracking: no store backend registered for scheme %q (uri %q)", scheme, uri)
	}

	return factory(uri, opts)
}

// uriScheme extracts the backend scheme from a tracking URI. Plain paths and
// file:// URIs both map to "file". Windows-style drive letters are not
// treated as schemes.
func uriScheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return "file"
	}

	return strings.ToLower(u.Scheme)
}
