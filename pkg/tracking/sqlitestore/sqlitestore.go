// Package sqlitestore persists tracking data in a single SQLite database,
// for roots shared by several local processes or too large for the file
// store's directory scans. Registered under the "sqlite" URI scheme, e.g.
// sqlite:///home/ml/newron.db.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newronai/newron-go/pkg/tracking"
	_ "modernc.org/sqlite"
)

func init() {
	tracking.RegisterStore("sqlite", func(uri string, _ tracking.StoreOptions) (tracking.Store, error) {
		return Open(PathFromURI(uri))
	})
}

// Store is a SQLite-backed tracking store.
type Store struct {
	db           *sql.DB
	artifactRoot string
}

var _ tracking.Store = (*Store)(nil)

// PathFromURI strips the sqlite:// scheme from a tracking URI, leaving the
// database path.
func PathFromURI(uri string) string {
	path := strings.TrimPrefix(uri, "sqlite://")

	return strings.TrimPrefix(path, "//")
}

// Open opens (or creates) the database at path, applies the schema, and
// ensures the default experiment exists. Artifacts of runs created through
// this store live beside the database under <dir>/artifacts/.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitestore: database path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlitestore: ping db: %w", err)
	}

	s := &Store{
		db:           db,
		artifactRoot: filepath.Join(filepath.Dir(cleanPath), "artifacts"),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS experiments (
			experiment_id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			artifact_location TEXT NOT NULL DEFAULT '',
			lifecycle_stage TEXT NOT NULL DEFAULT 'active',
			creation_time INTEGER NOT NULL,
			last_update_time INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS experiment_tags (
			experiment_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (experiment_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			run_name TEXT NOT NULL DEFAULT '',
			experiment_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			start_time INTEGER NOT NULL,
			end_time INTEGER NOT NULL DEFAULT 0,
			artifact_uri TEXT NOT NULL DEFAULT '',
			lifecycle_stage TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_experiment ON runs (experiment_id, start_time)`,
		`CREATE TABLE IF NOT EXISTS params (
			run_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			run_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (run_id, key)
		)`,
		`CREATE TABLE IF NOT EXISTS metrics (
			run_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value REAL NOT NULL,
			timestamp INTEGER NOT NULL,
			step INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_run_key ON metrics (run_id, key)`,
		`CREATE TABLE IF NOT EXISTS registered_models (
			name TEXT PRIMARY KEY,
			description TEXT NOT NULL DEFAULT '',
			creation_time INTEGER NOT NULL,
			last_updated_time INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS model_versions (
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			run_id TEXT NOT NULL DEFAULT '',
			current_stage TEXT NOT NULL DEFAULT 'None',
			status TEXT NOT NULL DEFAULT 'READY',
			description TEXT NOT NULL DEFAULT '',
			creation_time INTEGER NOT NULL,
			last_updated_time INTEGER NOT NULL,
			PRIMARY KEY (name, version)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlitestore: migrate: %w", err)
		}
	}

	now := nowMillis()
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO experiments (experiment_id, name, artifact_location, creation_time, last_update_time)
		 VALUES (0, ?, ?, ?, ?)`,
		tracking.DefaultExperimentName, filepath.Join(s.artifactRoot, "0"), now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: seed default experiment: %w", err)
	}

	return nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

// --- experiments ---

func (s *Store) CreateExperiment(ctx context.Context, name, artifactLocation string, tags []tracking.ExperimentTag) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM experiments WHERE name = ? AND lifecycle_stage = ?`,
		name, tracking.LifecycleActive,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("sqlitestore: check experiment name: %w", err)
	}
	if exists > 0 {
		return "", fmt.Errorf("sqlitestore: experiment %q already exists", name)
	}

	now := nowMillis()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (name, artifact_location, lifecycle_stage, creation_time, last_update_time)
		 VALUES (?, ?, ?, ?, ?)`,
		name, artifactLocation, tracking.LifecycleActive, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("sqlitestore: create experiment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("sqlitestore: create experiment: %w", err)
	}
	experimentID := strconv.FormatInt(id, 10)

	if artifactLocation == "" {
		location := filepath.Join(s.artifactRoot, experimentID)
		if _, err := s.db.ExecContext(ctx,
			`UPDATE experiments SET artifact_location = ? WHERE experiment_id = ?`, location, id,
		); err != nil {
			return "", fmt.Errorf("sqlitestore: set artifact location: %w", err)
		}
	}

	for _, tag := range tags {
		if err := s.SetExperimentTag(ctx, experimentID, tag); err != nil {
			return "", err
		}
	}

	return experimentID, nil
}

func (s *Store) GetExperiment(ctx context.Context, id string) (*tracking.Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT experiment_id, name, artifact_location, lifecycle_stage, creation_time, last_update_time
		 FROM experiments WHERE experiment_id = ?`, id,
	)

	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitestore: experiment %s: %w", id, tracking.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadExperimentTags(ctx, exp); err != nil {
		return nil, err
	}

	return exp, nil
}

func (s *Store) GetExperimentByName(ctx context.Context, name string) (*tracking.Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT experiment_id, name, artifact_location, lifecycle_stage, creation_time, last_update_time
		 FROM experiments WHERE name = ? AND lifecycle_stage = ? ORDER BY experiment_id LIMIT 1`,
		name, tracking.LifecycleActive,
	)

	exp, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitestore: experiment %q: %w", name, tracking.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadExperimentTags(ctx, exp); err != nil {
		return nil, err
	}

	return exp, nil
}

func (s *Store) ListExperiments(ctx context.Context, view tracking.ViewType) ([]*tracking.Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment_id, name, artifact_location, lifecycle_stage, creation_time, last_update_time
		 FROM experiments ORDER BY experiment_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list experiments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var experiments []*tracking.Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		if view.Matches(exp.LifecycleStage) {
			experiments = append(experiments, exp)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: list experiments: %w", err)
	}

	for _, exp := range experiments {
		if err := s.loadExperimentTags(ctx, exp); err != nil {
			return nil, err
		}
	}

	return experiments, nil
}

func (s *Store) DeleteExperiment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET lifecycle_stage = ?, last_update_time = ? WHERE experiment_id = ?`,
		tracking.LifecycleDeleted, nowMillis(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete experiment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlitestore: experiment %s: %w", id, tracking.ErrNotFound)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE runs SET lifecycle_stage = ? WHERE experiment_id = ?`,
		tracking.LifecycleDeleted, id,
	); err != nil {
		return fmt.Errorf("sqlitestore: delete experiment runs: %w", err)
	}

	return nil
}

func (s *Store) SetExperimentTag(ctx context.Context, id string, tag tracking.ExperimentTag) error {
	if _, err := s.GetExperiment(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO experiment_tags (experiment_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (experiment_id, key) DO UPDATE SET value = excluded.value`,
		id, tag.Key, tag.Value,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: set experiment tag: %w", err)
	}

	return nil
}

// --- runs ---

func (s *Store) CreateRun(ctx context.Context, experimentID, name string, startTime int64, tags []tracking.RunTag) (*tracking.Run, error) {
	exp, err := s.GetExperiment(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp.LifecycleStage != tracking.LifecycleActive {
		return nil, fmt.Errorf("sqlitestore: experiment %s is deleted", experimentID)
	}

	runID := tracking.NewRunID()
	if name == "" {
		name = "run-" + runID[:8]
	}
	artifactURI := filepath.Join(s.artifactRoot, experimentID, runID, "artifacts")

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, run_name, experiment_id, status, start_time, artifact_uri, lifecycle_stage)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, name, experimentID, string(tracking.StatusRunning), startTime, artifactURI, tracking.LifecycleActive,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: create run: %w", err)
	}

	for _, tag := range tags {
		if err := s.SetTag(ctx, runID, tag); err != nil {
			return nil, err
		}
	}

	return s.GetRun(ctx, runID)
}

func (s *Store) GetRun(ctx context.Context, runID string) (*tracking.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, run_name, experiment_id, status, start_time, end_time, artifact_uri, lifecycle_stage
		 FROM runs WHERE run_id = ?`, runID,
	)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitestore: run %s: %w", runID, tracking.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadRunData(ctx, run); err != nil {
		return nil, err
	}

	return run, nil
}

func (s *Store) UpdateRun(ctx context.Context, runID string, status tracking.RunStatus, endTime int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, end_time = ? WHERE run_id = ?`,
		string(status), endTime, runID,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlitestore: run %s: %w", runID, tracking.ErrNotFound)
	}

	return nil
}

func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET lifecycle_stage = ? WHERE run_id = ?`,
		tracking.LifecycleDeleted, runID,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlitestore: run %s: %w", runID, tracking.ErrNotFound)
	}

	return nil
}

func (s *Store) SearchRuns(ctx context.Context, experimentIDs []string, filter tracking.SearchFilter) ([]*tracking.Run, error) {
	query := `SELECT run_id, run_name, experiment_id, status, start_time, end_time, artifact_uri, lifecycle_stage
		 FROM runs`
	var (
		clauses []string
		args    []any
	)

	if len(experimentIDs) > 0 {
		placeholders := strings.Repeat("?,", len(experimentIDs))
		clauses = append(clauses, fmt.Sprintf("experiment_id IN (%s)", placeholders[:len(placeholders)-1]))
		for _, id := range experimentIDs {
			args = append(args, id)
		}
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	switch filter.View {
	case tracking.ActiveOnly:
		clauses = append(clauses, "lifecycle_stage = ?")
		args = append(args, tracking.LifecycleActive)
	case tracking.DeletedOnly:
		clauses = append(clauses, "lifecycle_stage = ?")
		args = append(args, tracking.LifecycleDeleted)
	}

	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY start_time DESC, run_id"
	if filter.MaxResults > 0 {
		query += " LIMIT ?"
		args = append(args, filter.MaxResults)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: search runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*tracking.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: search runs: %w", err)
	}

	for _, run := range runs {
		if err := s.loadRunData(ctx, run); err != nil {
			return nil, err
		}
	}

	return runs, nil
}

// --- logging ---

func (s *Store) LogMetric(ctx context.Context, runID string, metric tracking.Metric) error {
	if err := s.requireRun(ctx, runID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metrics (run_id, key, value, timestamp, step) VALUES (?, ?, ?, ?, ?)`,
		runID, metric.Key, metric.Value, metric.Timestamp, metric.Step,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: log metric: %w", err)
	}

	return nil
}

func (s *Store) LogParam(ctx context.Context, runID string, param tracking.Param) error {
	if err := s.requireRun(ctx, runID); err != nil {
		return err
	}

	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM params WHERE run_id = ? AND key = ?`, runID, param.Key,
	).Scan(&existing)
	switch {
	case err == nil:
		if existing == param.Value {
			return nil
		}
		return fmt.Errorf("sqlitestore: param %q: %w", param.Key, tracking.ErrParamConflict)
	case errors.Is(err, sql.ErrNoRows):
		// first write
	default:
		return fmt.Errorf("sqlitestore: log param: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO params (run_id, key, value) VALUES (?, ?, ?)`,
		runID, param.Key, param.Value,
	); err != nil {
		return fmt.Errorf("sqlitestore: log param: %w", err)
	}

	return nil
}

func (s *Store) SetTag(ctx context.Context, runID string, tag tracking.RunTag) error {
	if err := s.requireRun(ctx, runID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (run_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (run_id, key) DO UPDATE SET value = excluded.value`,
		runID, tag.Key, tag.Value,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: set tag: %w", err)
	}

	return nil
}

func (s *Store) DeleteTag(ctx context.Context, runID, key string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE run_id = ? AND key = ?`, runID, key,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlitestore: tag %q: %w", key, tracking.ErrNotFound)
	}

	return nil
}

func (s *Store) LogBatch(ctx context.Context, runID string, metrics []tracking.Metric, params []tracking.Param, tags []tracking.RunTag) error {
	for _, m := range metrics {
		if err := s.LogMetric(ctx, runID, m); err != nil {
			return err
		}
	}
	for _, p := range params {
		if err := s.LogParam(ctx, runID, p); err != nil {
			return err
		}
	}
	for _, t := range tags {
		if err := s.SetTag(ctx, runID, t); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) GetMetricHistory(ctx context.Context, runID, key string) ([]tracking.Metric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, timestamp, step FROM metrics WHERE run_id = ? AND key = ? ORDER BY rowid`,
		runID, key,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: metric history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var history []tracking.Metric
	for rows.Next() {
		var m tracking.Metric
		if err := rows.Scan(&m.Key, &m.Value, &m.Timestamp, &m.Step); err != nil {
			return nil, fmt.Errorf("sqlitestore: metric history: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: metric history: %w", err)
	}

	return history, nil
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (*tracking.Experiment, error) {
	var (
		exp tracking.Experiment
		id  int64
	)
	if err := row.Scan(&id, &exp.Name, &exp.ArtifactLocation, &exp.LifecycleStage, &exp.CreationTime, &exp.LastUpdateTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlitestore: scan experiment: %w", err)
	}
	exp.ExperimentID = strconv.FormatInt(id, 10)

	return &exp, nil
}

func scanRun(row rowScanner) (*tracking.Run, error) {
	var (
		run   tracking.Run
		expID int64
	)
	err := row.Scan(
		&run.Info.RunID, &run.Info.RunName, &expID, (*string)(&run.Info.Status),
		&run.Info.StartTime, &run.Info.EndTime, &run.Info.ArtifactURI, &run.Info.LifecycleStage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlitestore: scan run: %w", err)
	}
	run.Info.ExperimentID = strconv.FormatInt(expID, 10)

	return &run, nil
}

func (s *Store) requireRun(ctx context.Context, runID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlitestore: run %s: %w", runID, tracking.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sqlitestore: %w", err)
	}

	return nil
}

func (s *Store) loadExperimentTags(ctx context.Context, exp *tracking.Experiment) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM experiment_tags WHERE experiment_id = ? ORDER BY key`, exp.ExperimentID,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: experiment tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tag tracking.ExperimentTag
		if err := rows.Scan(&tag.Key, &tag.Value); err != nil {
			return fmt.Errorf("sqlitestore: experiment tags: %w", err)
		}
		exp.Tags = append(exp.Tags, tag)
	}

	return rows.Err()
}

func (s *Store) loadRunData(ctx context.Context, run *tracking.Run) error {
	params, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM params WHERE run_id = ? ORDER BY key`, run.Info.RunID,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: run params: %w", err)
	}
	defer func() { _ = params.Close() }()
	for params.Next() {
		var p tracking.Param
		if err := params.Scan(&p.Key, &p.Value); err != nil {
			return fmt.Errorf("sqlitestore: run params: %w", err)
		}
		run.Data.Params = append(run.Data.Params, p)
	}
	if err := params.Err(); err != nil {
		return fmt.Errorf("sqlitestore: run params: %w", err)
	}

	tags, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM tags WHERE run_id = ? ORDER BY key`, run.Info.RunID,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: run tags: %w", err)
	}
	defer func() { _ = tags.Close() }()
	for tags.Next() {
		var t tracking.RunTag
		if err := tags.Scan(&t.Key, &t.Value); err != nil {
			return fmt.Errorf("sqlitestore: run tags: %w", err)
		}
		run.Data.Tags = append(run.Data.Tags, t)
	}
	if err := tags.Err(); err != nil {
		return fmt.Errorf("sqlitestore: run tags: %w", err)
	}

	metrics, err := s.db.QueryContext(ctx,
		`SELECT key, value, timestamp, step FROM metrics WHERE run_id = ? ORDER BY rowid`, run.Info.RunID,
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: run metrics: %w", err)
	}
	defer func() { _ = metrics.Close() }()

	byKey := map[string][]tracking.Metric{}
	for metrics.Next() {
		var m tracking.Metric
		if err := metrics.Scan(&m.Key, &m.Value, &m.Timestamp, &m.Step); err != nil {
			return fmt.Errorf("sqlitestore: run metrics: %w", err)
		}
		byKey[m.Key] = append(byKey[m.Key], m)
	}
	if err := metrics.Err(); err != nil {
		return fmt.Errorf("sqlitestore: run metrics: %w", err)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if latest, ok := tracking.LatestOf(byKey[k]); ok {
			run.Data.Metrics = append(run.Data.Metrics, latest)
		}
	}

	return nil
}
