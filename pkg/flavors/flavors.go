// Package flavors declares the built-in framework integrations. Each entry
// maps a public flavor name to the Python package whose presence makes the
// flavor usable. The declaration order here is the order names appear in the
// supported list.
package flavors

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/newronai/newron-go/pkg/artifacts"
	"github.com/newronai/newron-go/pkg/flavor"
	"github.com/newronai/newron-go/pkg/flavor/pyprobe"
	"github.com/newronai/newron-go/pkg/models"
	"github.com/newronai/newron-go/pkg/tracking"
)

// Entry describes one built-in flavor.
type Entry struct {
	// Name is the public flavor name.
	Name string
	// Module is the Python package probed for.
	Module string
}

// Catalog returns the built-in flavors in declaration order.
func Catalog() []Entry {
	return []Entry{
		{Name: "catboost", Module: "catboost"},
		{Name: "fastai", Module: "fastai"},
		{Name: "gluon", Module: "mxnet"},
		{Name: "h2o", Module: "h2o"},
		{Name: "keras", Module: "keras"},
		{Name: "lightgbm", Module: "lightgbm"},
		{Name: "mleap", Module: "mleap"},
		{Name: "onnx", Module: "onnx"},
		{Name: "pyfunc", Module: "pandas"},
		{Name: "pytorch", Module: "torch"},
		{Name: "sklearn", Module: "sklearn"},
		{Name: "spacy", Module: "spacy"},
		{Name: "spark", Module: "pyspark"},
		{Name: "statsmodels", Module: "statsmodels"},
		{Name: "tensorflow", Module: "tensorflow"},
		{Name: "xgboost", Module: "xgboost"},
		{Name: "shap", Module: "shap"},
		{Name: "paddle", Module: "paddle"},
		{Name: "prophet", Module: "prophet"},
		{Name: "pmdarima", Module: "pmdarima"},
		{Name: "diviner", Module: "diviner"},
	}
}

// pythonFlavor is a flavor whose availability follows a Python package.
type pythonFlavor struct {
	name   string
	module string
	prober *pyprobe.Prober
}

func (f *pythonFlavor) Name() string { return f.name }

func (f *pythonFlavor) Probe(ctx context.Context) error {
	return f.prober.HasModule(ctx, f.module)
}

// Register adds every catalog entry to the registry, probing with p. A nil
// prober uses the package default.
func Register(r *flavor.Registry, p *pyprobe.Prober) {
	if p == nil {
		p = pyprobe.DefaultProber
	}
	for _, entry := range Catalog() {
		r.Register(&pythonFlavor{name: entry.Name, module: entry.Module, prober: p})
	}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *flavor.Registry
)

// Default returns the process-wide registry holding the built-in catalog.
func Default() *flavor.Registry {
	defaultOnce.Do(func() {
		defaultRegistry = flavor.NewRegistry()
		Register(defaultRegistry, nil)
	})

	return defaultRegistry
}

// LogModel writes a descriptor for the named flavor and logs it under the
// run's artifacts at artifactPath. The flavor must have been detected as
// supported in the registry.
func LogModel(ctx context.Context, r *flavor.Registry, c *tracking.Client, runID, artifactPath, flavorName string, config models.FlavorConfig) error {
	if _, ok := r.Capability(ctx, flavorName); !ok {
		return fmt.Errorf("flavors: flavor %q is not supported in this environment", flavorName)
	}

	tmp, err := os.MkdirTemp("", "newron-model-")
	if err != nil {
		return fmt.Errorf("flavors: temp model dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	descriptor := models.New(runID, artifactPath).AddFlavor(flavorName, config)
	if err := descriptor.Write(tmp); err != nil {
		return err
	}

	artifactURI, err := c.GetArtifactURI(ctx, runID)
	if err != nil {
		return err
	}
	repo, err := artifacts.ForURI(artifactURI)
	if err != nil {
		return err
	}

	return repo.LogDir(ctx, tmp, artifactPath)
}
