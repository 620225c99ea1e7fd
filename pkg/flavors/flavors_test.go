package flavors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/newronai/newron-go/pkg/flavor"
	"github.com/newronai/newron-go/pkg/flavor/pyprobe"
	"github.com/newronai/newron-go/pkg/models"
	"github.com/newronai/newron-go/pkg/tracking"
	_ "github.com/newronai/newron-go/pkg/tracking/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allowRunner reports every probed module as importable.
type allowRunner struct{}

func (allowRunner) Run(context.Context, string, ...string) (string, error) { return "", nil }

func TestCatalogOrderIsStable(t *testing.T) {
	entries := Catalog()
	require.NotEmpty(t, entries)
	assert.Equal(t, "catboost", entries[0].Name)
	assert.Equal(t, "diviner", entries[len(entries)-1].Name)
}

func TestRegisterAllSupported(t *testing.T) {
	t.Setenv(pyprobe.EnvPython, "/usr/bin/python3")

	r := flavor.NewRegistry()
	Register(r, &pyprobe.Prober{Runner: allowRunner{}})

	supported := r.Supported(context.Background())
	require.Len(t, supported, len(Catalog()))
	for i, entry := range Catalog() {
		assert.Equal(t, entry.Name, supported[i])
	}
}

func TestRegisterNoneInstalled(t *testing.T) {
	t.Setenv(pyprobe.EnvPython, "")
	t.Setenv("PATH", t.TempDir())

	r := flavor.NewRegistry()
	Register(r, &pyprobe.Prober{})

	ctx := context.Background()
	assert.Empty(t, r.Supported(ctx))
	assert.Empty(t, r.DetectErrors(ctx))
}

func TestLogModel(t *testing.T) {
	t.Setenv(pyprobe.EnvPython, "/usr/bin/python3")

	r := flavor.NewRegistry()
	Register(r, &pyprobe.Prober{Runner: allowRunner{}})

	root := t.TempDir()
	client, err := tracking.NewClient("file://"+root, tracking.StoreOptions{})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	run, err := client.CreateRun(ctx, tracking.DefaultExperimentID, "")
	require.NoError(t, err)

	err = LogModel(ctx, r, client, run.Info.RunID, "model", "sklearn", models.FlavorConfig{"pickled_model": "model.pkl"})
	require.NoError(t, err)

	uri, err := client.GetArtifactURI(ctx, run.Info.RunID)
	require.NoError(t, err)
	descriptor, err := models.Read(filepath.Join(uri, "model"))
	require.NoError(t, err)
	assert.Contains(t, descriptor.Flavors, "sklearn")
	assert.Equal(t, run.Info.RunID, descriptor.RunID)

	err = LogModel(ctx, r, client, run.Info.RunID, "model", "notaflavor", nil)
	require.Error(t, err)
}
