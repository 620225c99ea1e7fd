// Package models defines the model descriptor written alongside saved model
// artifacts and evaluation helpers that score a model's predictions into
// run metrics.
package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DescriptorFile is the name of the descriptor in a saved model directory.
const DescriptorFile = "model.yaml"

// FlavorConfig is the per-flavor section of a model descriptor. Keys are
// flavor-specific, e.g. the serialization format or framework version.
type FlavorConfig map[string]any

// Model is the descriptor of one saved model. Flavors records every format
// the model was saved in; loaders pick whichever they understand.
type Model struct {
	ModelUUID    string                  `yaml:"model_uuid"`
	RunID        string                  `yaml:"run_id,omitempty"`
	ArtifactPath string                  `yaml:"artifact_path,omitempty"`
	CreatedTime  int64                   `yaml:"utc_time_created"`
	Flavors      map[string]FlavorConfig `yaml:"flavors"`
}

// New creates a descriptor with a fresh UUID and the current creation time.
func New(runID, artifactPath string) *Model {
	return &Model{
		ModelUUID:    newModelUUID(),
		RunID:        runID,
		ArtifactPath: artifactPath,
		CreatedTime:  time.Now().UnixMilli(),
		Flavors:      map[string]FlavorConfig{},
	}
}

// AddFlavor records a flavor section, replacing any existing one of the same
// name.
func (m *Model) AddFlavor(name string, config FlavorConfig) *Model {
	if m.Flavors == nil {
		m.Flavors = map[string]FlavorConfig{}
	}
	m.Flavors[name] = config

	return m
}

// Write saves the descriptor into dir, creating it if needed.
func (m *Model) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("models: create model dir: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("models: marshal descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DescriptorFile), data, 0o644); err != nil {
		return fmt.Errorf("models: write descriptor: %w", err)
	}

	return nil
}

// Read loads the descriptor from a saved model directory.
func Read(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, fmt.Errorf("models: read descriptor: %w", err)
	}

	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("models: parse descriptor: %w", err)
	}

	return &m, nil
}

func newModelUUID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		now := time.Now().UnixNano()
		for i := range b {
			b[i] = byte(now >> (uint(i%8) * 8))
		}
	}

	return hex.EncodeToString(b[:])
}
