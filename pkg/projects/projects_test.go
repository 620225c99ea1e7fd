package projects

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/newronai/newron-go/pkg/tracking"
	_ "github.com/newronai/newron-go/pkg/tracking/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, descriptor string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorFile), []byte(descriptor), 0o644))

	return dir
}

func TestLoad(t *testing.T) {
	dir := writeProject(t, `
name: fraud-detector
entry_points:
  main:
    parameters:
      alpha:
        type: float
        default: "0.5"
    command: "python train.py --alpha {alpha}"
  validate:
    command: "python validate.py"
`)

	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "fraud-detector", p.Name)
	assert.Len(t, p.EntryPoints, 2)

	_, err = p.EntryPoint("missing")
	require.Error(t, err)
}

func TestLoadDefaultsNameToDir(t *testing.T) {
	dir := writeProject(t, "entry_points:\n  main:\n    command: \"true\"\n")

	p, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), p.Name)
}

func TestBuildCommand(t *testing.T) {
	ep := EntryPoint{
		Parameters: map[string]Parameter{
			"alpha": {Type: "float", Default: "0.5"},
			"data":  {Type: "path"},
		},
		Command: "python train.py --alpha {alpha} --data {data}",
	}

	cmd, err := ep.BuildCommand(map[string]string{"data": "/tmp/train.csv"})
	require.NoError(t, err)
	assert.Equal(t, "python train.py --alpha 0.5 --data /tmp/train.csv", cmd)

	cmd, err = ep.BuildCommand(map[string]string{"data": "/tmp/x", "alpha": "0.9", "verbose": "1"})
	require.NoError(t, err)
	assert.Equal(t, "python train.py --alpha 0.9 --data /tmp/x --verbose 1", cmd)

	_, err = ep.BuildCommand(nil)
	require.Error(t, err)
}

func TestRunRecordsOutcome(t *testing.T) {
	dir := writeProject(t, `
name: smoke
entry_points:
  main:
    parameters:
      code:
        default: "0"
    command: "exit {code}"
`)

	root := t.TempDir()
	uri := "file://" + root
	client, err := tracking.NewClient(uri, tracking.StoreOptions{})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	p, err := Load(dir)
	require.NoError(t, err)

	ctx := context.Background()

	submitted, err := Run(ctx, client, uri, p, RunOptions{Parameters: map[string]string{"code": "0"}})
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusFinished, submitted.Status)

	run, err := client.GetRun(ctx, submitted.RunID)
	require.NoError(t, err)
	name, ok := run.Tag(tracking.TagProjectName)
	require.True(t, ok)
	assert.Equal(t, "smoke", name)
	code, ok := run.Param("code")
	require.True(t, ok)
	assert.Equal(t, "0", code)

	submitted, err = Run(ctx, client, uri, p, RunOptions{Parameters: map[string]string{"code": "3"}})
	require.Error(t, err)
	require.NotNil(t, submitted)
	assert.Equal(t, tracking.StatusFailed, submitted.Status)

	failed, err := client.GetRun(ctx, submitted.RunID)
	require.NoError(t, err)
	assert.Equal(t, tracking.StatusFailed, failed.Info.Status)
}
