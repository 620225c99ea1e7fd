// Package modelregistry manages registered models and their numbered
// versions. A registered model is a named lineage; each version points at
// the artifacts of the run that produced it and moves through deployment
// stages.
package modelregistry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/newronai/newron-go/pkg/tracking"
)

// Stage is a model version's deployment stage.
type Stage string

const (
	StageNone       Stage = "None"
	StageStaging    Stage = "Staging"
	StageProduction Stage = "Production"
	StageArchived   Stage = "Archived"
)

// ValidStage reports whether s is one of the known stages.
func ValidStage(s Stage) bool {
	switch s {
	case StageNone, StageStaging, StageProduction, StageArchived:
		return true
	default:
		return false
	}
}

// StatusReady is the only version status local backends produce; remote
// backends may report versions still materializing.
const StatusReady = "READY"

// ErrNotFound is returned when a model or version does not exist.
var ErrNotFound = errors.New("modelregistry: not found")

// ErrModelExists is returned when creating a model whose name is taken.
var ErrModelExists = errors.New("modelregistry: model already exists")

// RegisteredModel is a named model lineage.
type RegisteredModel struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	CreationTime    int64  `json:"creation_time"`
	LastUpdatedTime int64  `json:"last_updated_time"`
}

// ModelVersion is one numbered version of a registered model.
type ModelVersion struct {
	Name            string `json:"name"`
	Version         int    `json:"version"`
	Source          string `json:"source"`
	RunID           string `json:"run_id,omitempty"`
	CurrentStage    Stage  `json:"current_stage"`
	Status          string `json:"status"`
	Description     string `json:"description,omitempty"`
	CreationTime    int64  `json:"creation_time"`
	LastUpdatedTime int64  `json:"last_updated_time"`
}

// Store is the persistence contract for registry backends.
type Store interface {
	// CreateRegisteredModel creates a named model; ErrModelExists when the
	// name is taken.
	CreateRegisteredModel(ctx context.Context, name, description string) (*RegisteredModel, error)
	GetRegisteredModel(ctx context.Context, name string) (*RegisteredModel, error)
	// ListRegisteredModels returns all models ordered by name.
	ListRegisteredModels(ctx context.Context) ([]*RegisteredModel, error)
	DeleteRegisteredModel(ctx context.Context, name string) error

	// CreateModelVersion assigns the next version number, starting at 1.
	CreateModelVersion(ctx context.Context, name, source, runID, description string) (*ModelVersion, error)
	GetModelVersion(ctx context.Context, name string, version int) (*ModelVersion, error)
	// ListModelVersions returns a model's versions in ascending order.
	ListModelVersions(ctx context.Context, name string) ([]*ModelVersion, error)
	// TransitionStage moves a version to the stage. With archiveExisting,
	// versions already in the target stage move to Archived first.
	TransitionStage(ctx context.Context, name string, version int, stage Stage, archiveExisting bool) (*ModelVersion, error)

	Close() error
}

// StoreFactory builds a registry Store for a registry URI.
type StoreFactory func(uri string, opts tracking.StoreOptions) (Store, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]StoreFactory{}
)

// RegisterStore registers a registry backend for a URI scheme. Backend
// packages call this from init alongside their tracking registration.
func RegisterStore(scheme string, factory StoreFactory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if _, dup := factories[scheme]; dup {
		panic(fmt.Sprintf("modelregistry: store factory for scheme %q already registered", scheme))
	}
	factories[scheme] = factory
}

// OpenStore opens the registry backend for the URI's scheme.
func OpenStore(uri string, opts tracking.StoreOptions) (Store, error) {
	scheme := uriScheme(uri)

	factoryMu.RLock()
	factory, ok := factories[scheme]
	factoryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("modelregistry: no registry backend registered for scheme %q (uri %q)", scheme, uri)
	}

	return factory(uri, opts)
}

func uriScheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return "file"
	}

	return strings.ToLower(u.Scheme)
}

// RegisterModel registers the model at modelURI under name, creating the
// registered model on first use and returning the new version. The model URI
// is either a plain artifact location or the runs:/<run-id>/<path> form,
// which is resolved against the tracking client.
func RegisterModel(ctx context.Context, store Store, client *tracking.Client, modelURI, name string) (*ModelVersion, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("modelregistry: model name is required")
	}

	source, runID, err := resolveModelURI(ctx, client, modelURI)
	if err != nil {
		return nil, err
	}

	if _, err := store.GetRegisteredModel(ctx, name); errors.Is(err, ErrNotFound) {
		if _, err := store.CreateRegisteredModel(ctx, name, ""); err != nil && !errors.Is(err, ErrModelExists) {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return store.CreateModelVersion(ctx, name, source, runID, "")
}

// resolveModelURI turns a model URI into a concrete artifact source plus the
// originating run ID, when the URI names one.
func resolveModelURI(ctx context.Context, client *tracking.Client, modelURI string) (source, runID string, err error) {
	const runsScheme = "runs:/"

	if !strings.HasPrefix(modelURI, runsScheme) {
		return modelURI, "", nil
	}

	rest := strings.TrimPrefix(modelURI, runsScheme)
	runID, artifactPath, _ := strings.Cut(rest, "/")
	if runID == "" {
		return "", "", fmt.Errorf("modelregistry: malformed model uri %q", modelURI)
	}
	if client == nil {
		return "", "", fmt.Errorf("modelregistry: resolving %q requires a tracking client", modelURI)
	}

	artifactURI, err := client.GetArtifactURI(ctx, runID)
	if err != nil {
		return "", "", err
	}

	source = artifactURI
	if artifactPath != "" {
		source = strings.TrimSuffix(artifactURI, "/") + "/" + artifactPath
	}

	return source, runID, nil
}
