// Package trackingdir encapsulates all path knowledge for a local tracking
// root directory. It provides a Dir value object with accessors for
// experiment, run, metric, param, tag, and artifact paths, so the file store
// never assembles paths by hand.
package trackingdir

import (
	"net/url"
	"os"
	"path/filepath"
)

// Layout of a tracking root:
//
//	root/
//	  experiments/<experiment-id>/meta.yaml
//	  experiments/<experiment-id>/runs/<run-id>/meta.yaml
//	  experiments/<experiment-id>/runs/<run-id>/metrics/<key>
//	  experiments/<experiment-id>/runs/<run-id>/params/<key>
//	  experiments/<experiment-id>/runs/<run-id>/tags/<key>
//	  experiments/<experiment-id>/runs/<run-id>/artifacts/
//	  models/<model-name>/meta.yaml
//	  models/<model-name>/versions/<n>/meta.yaml

// Dir is a value object that resolves paths within a tracking root.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given path. A file:// URI is accepted and
// reduced to its path. The result is converted to an absolute path. No I/O
// is performed.
func New(root string) Dir {
	if u, err := url.Parse(root); err == nil && u.Scheme == "file" {
		root = u.Path
		if u.Host != "" {
			root = filepath.Join(u.Host, u.Path)
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	return Dir{root: abs}
}

// Root returns the absolute path to the tracking root.
func (d Dir) Root() string { return d.root }

// ExperimentsDir returns the directory holding all experiments.
func (d Dir) ExperimentsDir() string { return filepath.Join(d.root, "experiments") }

// ExperimentDir returns an experiment's directory.
func (d Dir) ExperimentDir(experimentID string) string {
	return filepath.Join(d.ExperimentsDir(), experimentID)
}

// ExperimentMetaPath returns the path of an experiment's metadata file.
func (d Dir) ExperimentMetaPath(experimentID string) string {
	return filepath.Join(d.ExperimentDir(experimentID), "meta.yaml")
}

// RunsDir returns the directory holding an experiment's runs.
func (d Dir) RunsDir(experimentID string) string {
	return filepath.Join(d.ExperimentDir(experimentID), "runs")
}

// RunDir returns a run's directory.
func (d Dir) RunDir(experimentID, runID string) string {
	return filepath.Join(d.RunsDir(experimentID), runID)
}

// RunMetaPath returns the path of a run's metadata file.
func (d Dir) RunMetaPath(experimentID, runID string) string {
	return filepath.Join(d.RunDir(experimentID, runID), "meta.yaml")
}

// MetricsDir returns a run's metric history directory.
func (d Dir) MetricsDir(experimentID, runID string) string {
	return filepath.Join(d.RunDir(experimentID, runID), "metrics")
}

// MetricPath returns the history file for one metric key.
func (d Dir) MetricPath(experimentID, runID, key string) string {
	return filepath.Join(d.MetricsDir(experimentID, runID), escapeKey(key))
}

// ParamsDir returns a run's params directory.
func (d Dir) ParamsDir(experimentID, runID string) string {
	return filepath.Join(d.RunDir(experimentID, runID), "params")
}

// ParamPath returns the value file for one param key.
func (d Dir) ParamPath(experimentID, runID, key string) string {
	return filepath.Join(d.ParamsDir(experimentID, runID), escapeKey(key))
}

// TagsDir returns a run's tags directory.
func (d Dir) TagsDir(experimentID, runID string) string {
	return filepath.Join(d.RunDir(experimentID, runID), "tags")
}

// TagPath returns the value file for one tag key.
func (d Dir) TagPath(experimentID, runID, key string) string {
	return filepath.Join(d.TagsDir(experimentID, runID), escapeKey(key))
}

// ExperimentTagsDir returns an experiment's tags directory.
func (d Dir) ExperimentTagsDir(experimentID string) string {
	return filepath.Join(d.ExperimentDir(experimentID), "tags")
}

// ExperimentTagPath returns the value file for one experiment tag key.
func (d Dir) ExperimentTagPath(experimentID, key string) string {
	return filepath.Join(d.ExperimentTagsDir(experimentID), escapeKey(key))
}

// ArtifactsDir returns a run's artifact directory.
func (d Dir) ArtifactsDir(experimentID, runID string) string {
	return filepath.Join(d.RunDir(experimentID, runID), "artifacts")
}

// ModelsDir returns the directory holding the model registry.
func (d Dir) ModelsDir() string { return filepath.Join(d.root, "models") }

// ModelDir returns a registered model's directory.
func (d Dir) ModelDir(name string) string {
	return filepath.Join(d.ModelsDir(), escapeKey(name))
}

// ModelMetaPath returns the path of a registered model's metadata file.
func (d Dir) ModelMetaPath(name string) string {
	return filepath.Join(d.ModelDir(name), "meta.yaml")
}

// ModelVersionsDir returns the directory holding a model's versions.
func (d Dir) ModelVersionsDir(name string) string {
	return filepath.Join(d.ModelDir(name), "versions")
}

// ModelVersionMetaPath returns the path of one model version's metadata file.
func (d Dir) ModelVersionMetaPath(name, version string) string {
	return filepath.Join(d.ModelVersionsDir(name), version, "meta.yaml")
}

// Exists reports whether the tracking root exists on disk.
func (d Dir) Exists() bool {
	info, err := os.Stat(d.root)

	return err == nil && info.IsDir()
}

// escapeKey makes a metric/param/tag key safe to use as a file name. Keys
// may contain slashes; escaping keeps one file per key instead of nested
// directories.
func escapeKey(key string) string {
	return url.PathEscape(key)
}

// UnescapeKey reverses the escaping applied to key file names.
func UnescapeKey(name string) string {
	key, err := url.PathUnescape(name)
	if err != nil {
		return name
	}

	return key
}
