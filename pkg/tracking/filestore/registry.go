package filestore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
)

func init() {
	modelregistry.RegisterStore("file", func(uri string, _ tracking.StoreOptions) (modelregistry.Store, error) {
		return Open(uri)
	})
}

var _ modelregistry.Store = (*Store)(nil)

// modelMeta is the on-disk form of a registered model.
type modelMeta struct {
	Name            string `yaml:"name"`
	Description     string `yaml:"description,omitempty"`
	CreationTime    int64  `yaml:"creation_time"`
	LastUpdatedTime int64  `yaml:"last_updated_time"`
}

// versionMeta is the on-disk form of one model version.
type versionMeta struct {
	Name            string `yaml:"name"`
	Version         int    `yaml:"version"`
	Source          string `yaml:"source"`
	RunID           string `yaml:"run_id,omitempty"`
	CurrentStage    string `yaml:"current_stage"`
	Status          string `yaml:"status"`
	Description     string `yaml:"description,omitempty"`
	CreationTime    int64  `yaml:"creation_time"`
	LastUpdatedTime int64  `yaml:"last_updated_time"`
}

func (s *Store) CreateRegisteredModel(ctx context.Context, name, description string) (*modelregistry.RegisteredModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metaPath := s.dir.ModelMetaPath(name)
	if _, err := os.Stat(metaPath); err == nil {
		return nil, fmt.Errorf("filestore: model %q: %w", name, modelregistry.ErrModelExists)
	}

	now := nowMillis()
	meta := modelMeta{Name: name, Description: description, CreationTime: now, LastUpdatedTime: now}
	if err := writeYAML(metaPath, meta); err != nil {
		return nil, err
	}

	return meta.toModel(), nil
}

func (s *Store) GetRegisteredModel(ctx context.Context, name string) (*modelregistry.RegisteredModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readModelMeta(name)
	if err != nil {
		return nil, err
	}

	return meta.toModel(), nil
}

func (s *Store) ListRegisteredModels(ctx context.Context) ([]*modelregistry.RegisteredModel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir.ModelsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read models: %w", err)
	}

	models := make([]*modelregistry.RegisteredModel, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.readModelMeta(e.Name())
		if err != nil {
			return nil, err
		}
		models = append(models, meta.toModel())
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	return models, nil
}

func (s *Store) DeleteRegisteredModel(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readModelMeta(name); err != nil {
		return err
	}

	if err := os.RemoveAll(s.dir.ModelDir(name)); err != nil {
		return fmt.Errorf("filestore: delete model %q: %w", name, err)
	}

	return nil
}

func (s *Store) CreateModelVersion(ctx context.Context, name, source, runID, description string) (*modelregistry.ModelVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readModelMeta(name); err != nil {
		return nil, err
	}

	versions, err := s.versionNumbers(name)
	if err != nil {
		return nil, err
	}

	next := 1
	if len(versions) > 0 {
		next = versions[len(versions)-1] + 1
	}

	now := nowMillis()
	meta := versionMeta{
		Name:            name,
		Version:         next,
		Source:          source,
		RunID:           runID,
		CurrentStage:    string(modelregistry.StageNone),
		Status:          modelregistry.StatusReady,
		Description:     description,
		CreationTime:    now,
		LastUpdatedTime: now,
	}
	if err := writeYAML(s.dir.ModelVersionMetaPath(name, strconv.Itoa(next)), meta); err != nil {
		return nil, err
	}

	return meta.toVersion(), nil
}

func (s *Store) GetModelVersion(ctx context.Context, name string, version int) (*modelregistry.ModelVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readVersionMeta(name, version)
	if err != nil {
		return nil, err
	}

	return meta.toVersion(), nil
}

func (s *Store) ListModelVersions(ctx context.Context, name string) ([]*modelregistry.ModelVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	numbers, err := s.versionNumbers(name)
	if err != nil {
		return nil, err
	}

	versions := make([]*modelregistry.ModelVersion, 0, len(numbers))
	for _, n := range numbers {
		meta, err := s.readVersionMeta(name, n)
		if err != nil {
			return nil, err
		}
		versions = append(versions, meta.toVersion())
	}

	return versions, nil
}

func (s *Store) TransitionStage(ctx context.Context, name string, version int, stage modelregistry.Stage, archiveExisting bool) (*modelregistry.ModelVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !modelregistry.ValidStage(stage) {
		return nil, fmt.Errorf("filestore: unknown stage %q", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readVersionMeta(name, version)
	if err != nil {
		return nil, err
	}

	if archiveExisting && (stage == modelregistry.StageStaging || stage == modelregistry.StageProduction) {
		numbers, err := s.versionNumbers(name)
		if err != nil {
			return nil, err
		}
		for _, n := range numbers {
			if n == version {
				continue
			}
			other, err := s.readVersionMeta(name, n)
			if err != nil {
				return nil, err
			}
			if other.CurrentStage != string(stage) {
				continue
			}
			other.CurrentStage = string(modelregistry.StageArchived)
			other.LastUpdatedTime = nowMillis()
			if err := writeYAML(s.dir.ModelVersionMetaPath(name, strconv.Itoa(n)), other); err != nil {
				return nil, err
			}
		}
	}

	meta.CurrentStage = string(stage)
	meta.LastUpdatedTime = nowMillis()
	if err := writeYAML(s.dir.ModelVersionMetaPath(name, strconv.Itoa(version)), meta); err != nil {
		return nil, err
	}

	return meta.toVersion(), nil
}

func (s *Store) readModelMeta(name string) (modelMeta, error) {
	var meta modelMeta
	if err := readYAML(s.dir.ModelMetaPath(name), &meta); err != nil {
		if os.IsNotExist(err) {
			return meta, fmt.Errorf("filestore: model %q: %w", name, modelregistry.ErrNotFound)
		}
		return meta, err
	}

	return meta, nil
}

func (s *Store) readVersionMeta(name string, version int) (versionMeta, error) {
	var meta versionMeta
	if err := readYAML(s.dir.ModelVersionMetaPath(name, strconv.Itoa(version)), &meta); err != nil {
		if os.IsNotExist(err) {
			return meta, fmt.Errorf("filestore: model %q version %d: %w", name, version, modelregistry.ErrNotFound)
		}
		return meta, err
	}

	return meta, nil
}

func (s *Store) versionNumbers(name string) ([]int, error) {
	entries, err := os.ReadDir(s.dir.ModelVersionsDir(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read versions of %q: %w", name, err)
	}

	numbers := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, err := strconv.Atoi(e.Name()); err == nil {
			numbers = append(numbers, n)
		}
	}

	sort.Ints(numbers)

	return numbers, nil
}

func (m modelMeta) toModel() *modelregistry.RegisteredModel {
	return &modelregistry.RegisteredModel{
		Name:            m.Name,
		Description:     m.Description,
		CreationTime:    m.CreationTime,
		LastUpdatedTime: m.LastUpdatedTime,
	}
}

func (m versionMeta) toVersion() *modelregistry.ModelVersion {
	return &modelregistry.ModelVersion{
		Name:            m.Name,
		Version:         m.Version,
		Source:          m.Source,
		RunID:           m.RunID,
		CurrentStage:    modelregistry.Stage(m.CurrentStage),
		Status:          m.Status,
		Description:     m.Description,
		CreationTime:    m.CreationTime,
		LastUpdatedTime: m.LastUpdatedTime,
	}
}
