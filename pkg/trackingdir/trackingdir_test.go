package trackingdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsAreRootedAndComposed(t *testing.T) {
	root := t.TempDir()
	d := New(root)

	assert.Equal(t, root, d.Root())
	assert.Equal(t, filepath.Join(root, "experiments", "3", "meta.yaml"), d.ExperimentMetaPath("3"))
	assert.Equal(t, filepath.Join(root, "experiments", "3", "runs", "abc", "metrics", "loss"), d.MetricPath("3", "abc", "loss"))
	assert.Equal(t, filepath.Join(root, "models", "churn", "versions", "2", "meta.yaml"), d.ModelVersionMetaPath("churn", "2"))
}

func TestNewAcceptsFileURI(t *testing.T) {
	d := New("file:///tmp/newronruns")
	assert.Equal(t, filepath.FromSlash("/tmp/newronruns"), d.Root())
}

func TestKeyEscapingRoundTrip(t *testing.T) {
	d := New(t.TempDir())

	path := d.MetricPath("0", "run", "val/accuracy")
	base := filepath.Base(path)
	require.NotContains(t, base, "/")
	assert.Equal(t, "val/accuracy", UnescapeKey(base))
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	assert.True(t, New(root).Exists())
	assert.False(t, New(filepath.Join(root, "missing")).Exists())
}
