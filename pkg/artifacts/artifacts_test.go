package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLogAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewLocal(t.TempDir())

	src := filepath.Join(t.TempDir(), "weights.bin")
	writeFile(t, src, "0101")

	require.NoError(t, repo.Log(ctx, src, "model"))

	infos, err := repo.List(ctx, "model")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "model/weights.bin", infos[0].Path)
	assert.Equal(t, int64(4), infos[0].Size)
	assert.False(t, infos[0].IsDir)
}

func TestLogDirCopiesTree(t *testing.T) {
	ctx := context.Background()
	repo := NewLocal(t.TempDir())

	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	require.NoError(t, repo.LogDir(ctx, src, "data"))

	infos, err := repo.List(ctx, "data")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "data/a.txt", infos[0].Path)
	assert.Equal(t, "data/sub", infos[1].Path)
	assert.True(t, infos[1].IsDir)
}

func TestDownloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewLocal(t.TempDir())

	src := filepath.Join(t.TempDir(), "report.txt")
	writeFile(t, src, "ok")
	require.NoError(t, repo.Log(ctx, src, ""))

	dst := t.TempDir()
	local, err := repo.Download(ctx, "report.txt", dst)
	require.NoError(t, err)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestResolveRejectsEscape(t *testing.T) {
	repo := NewLocal(t.TempDir())

	_, err := repo.List(context.Background(), "../outside")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the artifact root")
}

func TestForURIFileScheme(t *testing.T) {
	repo, err := ForURI("file:///tmp/x/artifacts")
	require.NoError(t, err)

	local, ok := repo.(*Local)
	require.True(t, ok)
	assert.Equal(t, filepath.FromSlash("/tmp/x/artifacts"), local.Root())
}

func TestForURIRejectsRemoteScheme(t *testing.T) {
	_, err := ForURI("s3://bucket/path")
	require.Error(t, err)
}

func TestLogTextAndJSON(t *testing.T) {
	ctx := context.Background()
	repo := NewLocal(t.TempDir())

	require.NoError(t, LogText(ctx, repo, "hello", "notes/hello.txt"))
	require.NoError(t, LogJSON(ctx, repo, map[string]int{"epochs": 3}, "conf.json"))

	notes, err := repo.List(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "notes/hello.txt", notes[0].Path)

	root, err := repo.List(ctx, "")
	require.NoError(t, err)
	paths := []string{root[0].Path, root[1].Path}
	assert.Contains(t, paths, "conf.json")
}
