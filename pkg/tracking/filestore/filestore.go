// Package filestore persists tracking data as plain files under a local
// directory: one directory per experiment, one per run, metric histories as
// append-only line files, and params and tags as one small file per key.
// The layout is human-inspectable and needs no server.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/newronai/newron-go/pkg/tracking"
	"github.com/newronai/newron-go/pkg/trackingdir"
	"gopkg.in/yaml.v3"
)

func init() {
	tracking.RegisterStore("file", func(uri string, _ tracking.StoreOptions) (tracking.Store, error) {
		return Open(uri)
	})
}

// Store is a file-backed tracking store. Safe for concurrent use within one
// process; cross-process writers must not share a root.
type Store struct {
	mu  sync.Mutex
	dir trackingdir.Dir
}

var _ tracking.Store = (*Store)(nil)

// experimentMeta is the on-disk form of an experiment's metadata.
type experimentMeta struct {
	ExperimentID     string `yaml:"experiment_id"`
	Name             string `yaml:"name"`
	ArtifactLocation string `yaml:"artifact_location"`
	LifecycleStage   string `yaml:"lifecycle_stage"`
	CreationTime     int64  `yaml:"creation_time"`
	LastUpdateTime   int64  `yaml:"last_update_time"`
}

// runMeta is the on-disk form of a run's metadata.
type runMeta struct {
	RunID          string `yaml:"run_id"`
	RunName        string `yaml:"run_name"`
	ExperimentID   string `yaml:"experiment_id"`
	Status         string `yaml:"status"`
	StartTime      int64  `yaml:"start_time"`
	EndTime        int64  `yaml:"end_time"`
	ArtifactURI    string `yaml:"artifact_uri"`
	LifecycleStage string `yaml:"lifecycle_stage"`
}

// Open opens (or creates) a file store rooted at the given path or file://
// URI. The default experiment is created on first open.
func Open(root string) (*Store, error) {
	s := &Store{dir: trackingdir.New(root)}

	if err := os.MkdirAll(s.dir.ExperimentsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create root: %w", err)
	}

	metaPath := s.dir.ExperimentMetaPath(tracking.DefaultExperimentID)
	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		now := nowMillis()
		meta := experimentMeta{
			ExperimentID:     tracking.DefaultExperimentID,
			Name:             tracking.DefaultExperimentName,
			ArtifactLocation: s.dir.RunsDir(tracking.DefaultExperimentID),
			LifecycleStage:   tracking.LifecycleActive,
			CreationTime:     now,
			LastUpdateTime:   now,
		}
		if err := writeYAML(metaPath, meta); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Dir returns the store's root layout.
func (s *Store) Dir() trackingdir.Dir { return s.dir }

func nowMillis() int64 { return time.Now().UnixMilli() }

// Close is a no-op; the store holds no open handles between calls.
func (s *Store) Close() error { return nil }

// --- experiments ---

func (s *Store) CreateExperiment(ctx context.Context, name, artifactLocation string, tags []tracking.ExperimentTag) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.findExperimentByName(name, tracking.ActiveOnly)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", fmt.Errorf("filestore: experiment %q already exists", name)
	}

	id, err := s.nextExperimentID()
	if err != nil {
		return "", err
	}

	if artifactLocation == "" {
		artifactLocation = s.dir.RunsDir(id)
	}

	now := nowMillis()
	meta := experimentMeta{
		ExperimentID:     id,
		Name:             name,
		ArtifactLocation: artifactLocation,
		LifecycleStage:   tracking.LifecycleActive,
		CreationTime:     now,
		LastUpdateTime:   now,
	}
	if err := writeYAML(s.dir.ExperimentMetaPath(id), meta); err != nil {
		return "", err
	}

	for _, tag := range tags {
		if err := writeValueFile(s.dir.ExperimentTagPath(id, tag.Key), tag.Value); err != nil {
			return "", err
		}
	}

	return id, nil
}

func (s *Store) GetExperiment(ctx context.Context, id string) (*tracking.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readExperiment(id)
}

func (s *Store) GetExperimentByName(ctx context.Context, name string) (*tracking.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp, err := s.findExperimentByName(name, tracking.ActiveOnly)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, fmt.Errorf("filestore: experiment %q: %w", name, tracking.ErrNotFound)
	}

	return exp, nil
}

func (s *Store) ListExperiments(ctx context.Context, view tracking.ViewType) ([]*tracking.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.experimentIDs()
	if err != nil {
		return nil, err
	}

	experiments := make([]*tracking.Experiment, 0, len(ids))
	for _, id := range ids {
		exp, err := s.readExperiment(id)
		if err != nil {
			return nil, err
		}
		if view.Matches(exp.LifecycleStage) {
			experiments = append(experiments, exp)
		}
	}

	return experiments, nil
}

func (s *Store) DeleteExperiment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readExperimentMeta(id)
	if err != nil {
		return err
	}

	meta.LifecycleStage = tracking.LifecycleDeleted
	meta.LastUpdateTime = nowMillis()
	if err := writeYAML(s.dir.ExperimentMetaPath(id), meta); err != nil {
		return err
	}

	runIDs, err := s.runIDs(id)
	if err != nil {
		return err
	}
	for _, runID := range runIDs {
		rm, err := s.readRunMeta(id, runID)
		if err != nil {
			return err
		}
		rm.LifecycleStage = tracking.LifecycleDeleted
		if err := writeYAML(s.dir.RunMetaPath(id, runID), rm); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) SetExperimentTag(ctx context.Context, id string, tag tracking.ExperimentTag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readExperimentMeta(id); err != nil {
		return err
	}

	return writeValueFile(s.dir.ExperimentTagPath(id, tag.Key), tag.Value)
}

// --- runs ---

func (s *Store) CreateRun(ctx context.Context, experimentID, name string, startTime int64, tags []tracking.RunTag) (*tracking.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exp, err := s.readExperimentMeta(experimentID)
	if err != nil {
		return nil, err
	}
	if exp.LifecycleStage != tracking.LifecycleActive {
		return nil, fmt.Errorf("filestore: experiment %s is deleted", experimentID)
	}

	runID := tracking.NewRunID()
	if name == "" {
		name = "run-" + runID[:8]
	}

	meta := runMeta{
		RunID:          runID,
		RunName:        name,
		ExperimentID:   experimentID,
		Status:         string(tracking.StatusRunning),
		StartTime:      startTime,
		ArtifactURI:    s.dir.ArtifactsDir(experimentID, runID),
		LifecycleStage: tracking.LifecycleActive,
	}

	for _, sub := range []string{
		s.dir.MetricsDir(experimentID, runID),
		s.dir.ParamsDir(experimentID, runID),
		s.dir.TagsDir(experimentID, runID),
		s.dir.ArtifactsDir(experimentID, runID),
	} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("filestore: create run dirs: %w", err)
		}
	}
	if err := writeYAML(s.dir.RunMetaPath(experimentID, runID), meta); err != nil {
		return nil, err
	}

	for _, tag := range tags {
		if err := writeValueFile(s.dir.TagPath(experimentID, runID, tag.Key), tag.Value); err != nil {
			return nil, err
		}
	}

	return s.readRun(experimentID, runID)
}

func (s *Store) GetRun(ctx context.Context, runID string) (*tracking.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return nil, err
	}

	return s.readRun(experimentID, runID)
}

func (s *Store) UpdateRun(ctx context.Context, runID string, status tracking.RunStatus, endTime int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	meta, err := s.readRunMeta(experimentID, runID)
	if err != nil {
		return err
	}

	meta.Status = string(status)
	meta.EndTime = endTime

	return writeYAML(s.dir.RunMetaPath(experimentID, runID), meta)
}

func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	meta, err := s.readRunMeta(experimentID, runID)
	if err != nil {
		return err
	}

	meta.LifecycleStage = tracking.LifecycleDeleted

	return writeYAML(s.dir.RunMetaPath(experimentID, runID), meta)
}

func (s *Store) SearchRuns(ctx context.Context, experimentIDs []string, filter tracking.SearchFilter) ([]*tracking.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(experimentIDs) == 0 {
		ids, err := s.experimentIDs()
		if err != nil {
			return nil, err
		}
		experimentIDs = ids
	}

	var runs []*tracking.Run
	for _, expID := range experimentIDs {
		runIDs, err := s.runIDs(expID)
		if err != nil {
			return nil, err
		}
		for _, runID := range runIDs {
			run, err := s.readRun(expID, runID)
			if err != nil {
				return nil, err
			}
			if !filter.View.Matches(run.Info.LifecycleStage) {
				continue
			}
			if filter.Status != "" && run.Info.Status != filter.Status {
				continue
			}
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Info.StartTime != runs[j].Info.StartTime {
			return runs[i].Info.StartTime > runs[j].Info.StartTime
		}
		return runs[i].Info.RunID < runs[j].Info.RunID
	})

	if filter.MaxResults > 0 && len(runs) > filter.MaxResults {
		runs = runs[:filter.MaxResults]
	}

	return runs, nil
}

// --- logging ---

func (s *Store) LogMetric(ctx context.Context, runID string, metric tracking.Metric) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	return s.appendMetric(experimentID, runID, metric)
}

func (s *Store) LogParam(ctx context.Context, runID string, param tracking.Param) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	return s.writeParam(experimentID, runID, param)
}

func (s *Store) SetTag(ctx context.Context, runID string, tag tracking.RunTag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	return writeValueFile(s.dir.TagPath(experimentID, runID, tag.Key), tag.Value)
}

func (s *Store) DeleteTag(ctx context.Context, runID, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	path := s.dir.TagPath(experimentID, runID, key)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("filestore: tag %q: %w", key, tracking.ErrNotFound)
		}
		return fmt.Errorf("filestore: delete tag %q: %w", key, err)
	}

	return nil
}

func (s *Store) LogBatch(ctx context.Context, runID string, metrics []tracking.Metric, params []tracking.Param, tags []tracking.RunTag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return err
	}

	for _, m := range metrics {
		if err := s.appendMetric(experimentID, runID, m); err != nil {
			return err
		}
	}
	for _, p := range params {
		if err := s.writeParam(experimentID, runID, p); err != nil {
			return err
		}
	}
	for _, t := range tags {
		if err := writeValueFile(s.dir.TagPath(experimentID, runID, t.Key), t.Value); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) GetMetricHistory(ctx context.Context, runID, key string) ([]tracking.Metric, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	experimentID, err := s.findRunExperiment(runID)
	if err != nil {
		return nil, err
	}

	return readMetricFile(s.dir.MetricPath(experimentID, runID, key), key)
}

// --- internals ---

func (s *Store) nextExperimentID() (string, error) {
	ids, err := s.experimentIDs()
	if err != nil {
		return "", err
	}

	next := 1
	for _, id := range ids {
		if n, err := strconv.Atoi(id); err == nil && n >= next {
			next = n + 1
		}
	}

	return strconv.Itoa(next), nil
}

func (s *Store) experimentIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir.ExperimentsDir())
	if err != nil {
		return nil, fmt.Errorf("filestore: read experiments: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})

	return ids, nil
}

func (s *Store) runIDs(experimentID string) ([]string, error) {
	entries, err := os.ReadDir(s.dir.RunsDir(experimentID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read runs of %s: %w", experimentID, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}

	return ids, nil
}

// findRunExperiment locates the experiment a run belongs to by scanning the
// experiment directories. Roots stay small enough that an index is not worth
// its consistency burden.
func (s *Store) findRunExperiment(runID string) (string, error) {
	ids, err := s.experimentIDs()
	if err != nil {
		return "", err
	}

	for _, expID := range ids {
		if _, err := os.Stat(s.dir.RunMetaPath(expID, runID)); err == nil {
			return expID, nil
		}
	}

	return "", fmt.Errorf("filestore: run %s: %w", runID, tracking.ErrNotFound)
}

func (s *Store) readExperimentMeta(id string) (experimentMeta, error) {
	var meta experimentMeta
	if err := readYAML(s.dir.ExperimentMetaPath(id), &meta); err != nil {
		if os.IsNotExist(err) {
			return meta, fmt.Errorf("filestore: experiment %s: %w", id, tracking.ErrNotFound)
		}
		return meta, err
	}

	return meta, nil
}

func (s *Store) readExperiment(id string) (*tracking.Experiment, error) {
	meta, err := s.readExperimentMeta(id)
	if err != nil {
		return nil, err
	}

	tags, err := readValueDir(s.dir.ExperimentTagsDir(id))
	if err != nil {
		return nil, err
	}

	exp := &tracking.Experiment{
		ExperimentID:     meta.ExperimentID,
		Name:             meta.Name,
		ArtifactLocation: meta.ArtifactLocation,
		LifecycleStage:   meta.LifecycleStage,
		CreationTime:     meta.CreationTime,
		LastUpdateTime:   meta.LastUpdateTime,
	}
	for _, kv := range tags {
		exp.Tags = append(exp.Tags, tracking.ExperimentTag{Key: kv[0], Value: kv[1]})
	}

	return exp, nil
}

func (s *Store) findExperimentByName(name string, view tracking.ViewType) (*tracking.Experiment, error) {
	ids, err := s.experimentIDs()
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		exp, err := s.readExperiment(id)
		if err != nil {
			return nil, err
		}
		if exp.Name == name && view.Matches(exp.LifecycleStage) {
			return exp, nil
		}
	}

	return nil, nil
}

func (s *Store) readRunMeta(experimentID, runID string) (runMeta, error) {
	var meta runMeta
	if err := readYAML(s.dir.RunMetaPath(experimentID, runID), &meta); err != nil {
		if os.IsNotExist(err) {
			return meta, fmt.Errorf("filestore: run %s: %w", runID, tracking.ErrNotFound)
		}
		return meta, err
	}

	return meta, nil
}

func (s *Store) readRun(experimentID, runID string) (*tracking.Run, error) {
	meta, err := s.readRunMeta(experimentID, runID)
	if err != nil {
		return nil, err
	}

	run := &tracking.Run{
		Info: tracking.RunInfo{
			RunID:          meta.RunID,
			RunName:        meta.RunName,
			ExperimentID:   meta.ExperimentID,
			Status:         tracking.RunStatus(meta.Status),
			StartTime:      meta.StartTime,
			EndTime:        meta.EndTime,
			ArtifactURI:    meta.ArtifactURI,
			LifecycleStage: meta.LifecycleStage,
		},
	}

	params, err := readValueDir(s.dir.ParamsDir(experimentID, runID))
	if err != nil {
		return nil, err
	}
	for _, kv := range params {
		run.Data.Params = append(run.Data.Params, tracking.Param{Key: kv[0], Value: kv[1]})
	}

	tags, err := readValueDir(s.dir.TagsDir(experimentID, runID))
	if err != nil {
		return nil, err
	}
	for _, kv := range tags {
		run.Data.Tags = append(run.Data.Tags, tracking.RunTag{Key: kv[0], Value: kv[1]})
	}

	metrics, err := s.latestMetrics(experimentID, runID)
	if err != nil {
		return nil, err
	}
	run.Data.Metrics = metrics

	return run, nil
}

func (s *Store) latestMetrics(experimentID, runID string) ([]tracking.Metric, error) {
	dir := s.dir.MetricsDir(experimentID, runID)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read metrics: %w", err)
	}

	metrics := make([]tracking.Metric, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key := trackingdir.UnescapeKey(e.Name())
		history, err := readMetricFile(filepath.Join(dir, e.Name()), key)
		if err != nil {
			return nil, err
		}
		if latest, ok := tracking.LatestOf(history); ok {
			metrics = append(metrics, latest)
		}
	}

	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Key < metrics[j].Key })

	return metrics, nil
}

func (s *Store) appendMetric(experimentID, runID string, m tracking.Metric) error {
	path := s.dir.MetricPath(experimentID, runID, m.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // inside the tracking root
	if err != nil {
		return fmt.Errorf("filestore: append metric %q: %w", m.Key, err)
	}

	line := fmt.Sprintf("%d %s %d\n", m.Timestamp, strconv.FormatFloat(m.Value, 'g', -1, 64), m.Step)
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("filestore: append metric %q: %w", m.Key, err)
	}

	return f.Close()
}

func (s *Store) writeParam(experimentID, runID string, p tracking.Param) error {
	path := s.dir.ParamPath(experimentID, runID, p.Key)

	if existing, err := os.ReadFile(path); err == nil { //nolint:gosec // inside the tracking root
		if string(existing) == p.Value {
			return nil
		}
		return fmt.Errorf("filestore: param %q: %w", p.Key, tracking.ErrParamConflict)
	}

	return writeValueFile(path, p.Value)
}

// readMetricFile parses a metric history file: one "timestamp value step"
// line per point, in log order.
func readMetricFile(path, key string) ([]tracking.Metric, error) {
	data, err := os.ReadFile(path) //nolint:gosec // inside the tracking root
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read metric %q: %w", key, err)
	}

	var history []tracking.Metric
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("filestore: metric %q: malformed line %q", key, line)
		}

		ts, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filestore: metric %q: %w", key, err)
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("filestore: metric %q: %w", key, err)
		}
		step, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filestore: metric %q: %w", key, err)
		}

		history = append(history, tracking.Metric{Key: key, Value: value, Timestamp: ts, Step: step})
	}

	return history, nil
}

// readValueDir reads a params/tags directory into sorted key-value pairs.
func readValueDir(dir string) ([][2]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", dir, err)
	}

	pairs := make([][2]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name())) //nolint:gosec // inside the tracking root
		if err != nil {
			return nil, fmt.Errorf("filestore: read %s: %w", e.Name(), err)
		}
		pairs = append(pairs, [2]string{trackingdir.UnescapeKey(e.Name()), string(data)})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })

	return pairs, nil
}

func writeValueFile(path, value string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil { //nolint:gosec // tracking values are not secrets
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}

	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("filestore: marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("filestore: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // tracking metadata is not secret
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}

	return nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // inside the tracking root
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("filestore: parse %s: %w", path, err)
	}

	return nil
}
