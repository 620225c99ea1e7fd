package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/newronai/newron-go/pkg/modelregistry"
	"github.com/newronai/newron-go/pkg/tracking"
)

func init() {
	modelregistry.RegisterStore("sqlite", func(uri string, _ tracking.StoreOptions) (modelregistry.Store, error) {
		return Open(PathFromURI(uri))
	})
}

var _ modelregistry.Store = (*Store)(nil)

func (s *Store) CreateRegisteredModel(ctx context.Context, name, description string) (*modelregistry.RegisteredModel, error) {
	now := nowMillis()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registered_models (name, description, creation_time, last_updated_time)
		 VALUES (?, ?, ?, ?)`,
		name, description, now, now,
	)
	if err != nil {
		if _, getErr := s.GetRegisteredModel(ctx, name); getErr == nil {
			return nil, fmt.Errorf("sqlitestore: model %q: %w", name, modelregistry.ErrModelExists)
		}
		return nil, fmt.Errorf("sqlitestore: create model: %w", err)
	}

	return &modelregistry.RegisteredModel{
		Name:            name,
		Description:     description,
		CreationTime:    now,
		LastUpdatedTime: now,
	}, nil
}

func (s *Store) GetRegisteredModel(ctx context.Context, name string) (*modelregistry.RegisteredModel, error) {
	var m modelregistry.RegisteredModel
	err := s.db.QueryRowContext(ctx,
		`SELECT name, description, creation_time, last_updated_time FROM registered_models WHERE name = ?`,
		name,
	).Scan(&m.Name, &m.Description, &m.CreationTime, &m.LastUpdatedTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitestore: model %q: %w", name, modelregistry.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get model: %w", err)
	}

	return &m, nil
}

func (s *Store) ListRegisteredModels(ctx context.Context) ([]*modelregistry.RegisteredModel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description, creation_time, last_updated_time FROM registered_models ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []*modelregistry.RegisteredModel
	for rows.Next() {
		var m modelregistry.RegisteredModel
		if err := rows.Scan(&m.Name, &m.Description, &m.CreationTime, &m.LastUpdatedTime); err != nil {
			return nil, fmt.Errorf("sqlitestore: list models: %w", err)
		}
		models = append(models, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: list models: %w", err)
	}

	return models, nil
}

func (s *Store) DeleteRegisteredModel(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM registered_models WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete model: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlitestore: model %q: %w", name, modelregistry.ErrNotFound)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM model_versions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlitestore: delete model versions: %w", err)
	}

	return nil
}

func (s *Store) CreateModelVersion(ctx context.Context, name, source, runID, description string) (*modelregistry.ModelVersion, error) {
	if _, err := s.GetRegisteredModel(ctx, name); err != nil {
		return nil, err
	}

	var next int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM model_versions WHERE name = ?`, name,
	).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: next version: %w", err)
	}

	now := nowMillis()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO model_versions (name, version, source, run_id, current_stage, status, description, creation_time, last_updated_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, next, source, runID, string(modelregistry.StageNone), modelregistry.StatusReady, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: create version: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE registered_models SET last_updated_time = ? WHERE name = ?`, now, name,
	); err != nil {
		return nil, fmt.Errorf("sqlitestore: touch model: %w", err)
	}

	return s.GetModelVersion(ctx, name, next)
}

func (s *Store) GetModelVersion(ctx context.Context, name string, version int) (*modelregistry.ModelVersion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, version, source, run_id, current_stage, status, description, creation_time, last_updated_time
		 FROM model_versions WHERE name = ? AND version = ?`,
		name, version,
	)

	mv, err := scanModelVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitestore: model %q version %d: %w", name, version, modelregistry.ErrNotFound)
	}

	return mv, err
}

func (s *Store) ListModelVersions(ctx context.Context, name string) ([]*modelregistry.ModelVersion, error) {
	if _, err := s.GetRegisteredModel(ctx, name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, version, source, run_id, current_stage, status, description, creation_time, last_updated_time
		 FROM model_versions WHERE name = ? ORDER BY version`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []*modelregistry.ModelVersion
	for rows.Next() {
		mv, err := scanModelVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: list versions: %w", err)
	}

	return versions, nil
}

func (s *Store) TransitionStage(ctx context.Context, name string, version int, stage modelregistry.Stage, archiveExisting bool) (*modelregistry.ModelVersion, error) {
	if !modelregistry.ValidStage(stage) {
		return nil, fmt.Errorf("sqlitestore: unknown stage %q", stage)
	}
	if _, err := s.GetModelVersion(ctx, name, version); err != nil {
		return nil, err
	}

	now := nowMillis()
	if archiveExisting && (stage == modelregistry.StageStaging || stage == modelregistry.StageProduction) {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE model_versions SET current_stage = ?, last_updated_time = ?
			 WHERE name = ? AND current_stage = ? AND version != ?`,
			string(modelregistry.StageArchived), now, name, string(stage), version,
		); err != nil {
			return nil, fmt.Errorf("sqlitestore: archive versions: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE model_versions SET current_stage = ?, last_updated_time = ? WHERE name = ? AND version = ?`,
		string(stage), now, name, version,
	); err != nil {
		return nil, fmt.Errorf("sqlitestore: transition stage: %w", err)
	}

	return s.GetModelVersion(ctx, name, version)
}

func scanModelVersion(row rowScanner) (*modelregistry.ModelVersion, error) {
	var mv modelregistry.ModelVersion
	err := row.Scan(
		&mv.Name, &mv.Version, &mv.Source, &mv.RunID, (*string)(&mv.CurrentStage),
		&mv.Status, &mv.Description, &mv.CreationTime, &mv.LastUpdatedTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlitestore: scan version: %w", err)
	}

	return &mv, nil
}
