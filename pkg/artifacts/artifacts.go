// Package artifacts stores and retrieves run artifacts. An artifact location
// is a URI recorded on the run; the local filesystem implementation covers
// plain paths and file:// URIs, which is what the file and sqlite tracking
// backends hand out.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo describes one artifact beneath a run's artifact root.
type FileInfo struct {
	// Path is relative to the artifact root, using forward slashes.
	Path  string
	IsDir bool
	Size  int64
}

// Repository reads and writes the artifacts of a single run.
type Repository interface {
	// Log copies a local file into the artifact root, under artifactPath
	// when it is non-empty.
	Log(ctx context.Context, localPath, artifactPath string) error
	// LogDir copies a local directory tree into the artifact root.
	LogDir(ctx context.Context, localDir, artifactPath string) error
	// List returns the entries under the given relative path, sorted.
	List(ctx context.Context, artifactPath string) ([]FileInfo, error)
	// Download copies an artifact (file or tree) into localDir and returns
	// the local path of the downloaded root.
	Download(ctx context.Context, artifactPath, localDir string) (string, error)
}

// ForURI returns a Repository for the artifact location URI. Only local
// locations (plain paths and file:// URIs) are supported; remote-backed runs
// use locations reachable through a shared filesystem mount.
func ForURI(uri string) (Repository, error) {
	u, err := url.Parse(uri)
	if err == nil && u.Scheme != "" && u.Scheme != "file" && len(u.Scheme) > 1 {
		return nil, fmt.Errorf("artifacts: unsupported artifact location scheme %q", u.Scheme)
	}

	root := uri
	if err == nil && u.Scheme == "file" {
		root = u.Path
		if u.Host != "" {
			root = filepath.Join(u.Host, u.Path)
		}
	}

	return &Local{root: filepath.Clean(root)}, nil
}

// Local is a Repository on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a Local repository rooted at dir.
func NewLocal(dir string) *Local {
	return &Local{root: filepath.Clean(dir)}
}

// Root returns the repository's root directory.
func (l *Local) Root() string { return l.root }

// Log copies a local file into the artifact root.
func (l *Local) Log(ctx context.Context, localPath, artifactPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dstDir, err := l.resolve(artifactPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("artifacts: create artifact dir: %w", err)
	}

	return copyFile(localPath, filepath.Join(dstDir, filepath.Base(localPath)))
}

// LogDir copies a local directory tree into the artifact root.
func (l *Local) LogDir(ctx context.Context, localDir, artifactPath string) error {
	dstRoot, err := l.resolve(artifactPath)
	if err != nil {
		return err
	}

	return filepath.Walk(localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("artifacts: walk %s: %w", localDir, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return fmt.Errorf("artifacts: %w", err)
		}
		dst := filepath.Join(dstRoot, rel)

		if info.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}

		return copyFile(p, dst)
	})
}

// List returns the entries under the given relative path, sorted by path.
func (l *Local) List(ctx context.Context, artifactPath string) ([]FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := l.resolve(artifactPath)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifacts: list %s: %w", artifactPath, err)
	}

	infos := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		rel := path.Join(artifactPath, e.Name())

		fi := FileInfo{Path: rel, IsDir: e.IsDir()}
		if !e.IsDir() {
			stat, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("artifacts: stat %s: %w", rel, err)
			}
			fi.Size = stat.Size()
		}
		infos = append(infos, fi)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	return infos, nil
}

// Download copies an artifact file or tree into localDir.
func (l *Local) Download(ctx context.Context, artifactPath, localDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src, err := l.resolve(artifactPath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("artifacts: download %s: %w", artifactPath, err)
	}

	dst := filepath.Join(localDir, filepath.Base(src))
	if !info.IsDir() {
		if err := copyFile(src, dst); err != nil {
			return "", err
		}
		return dst, nil
	}

	err = filepath.Walk(src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
	if err != nil {
		return "", fmt.Errorf("artifacts: download %s: %w", artifactPath, err)
	}

	return dst, nil
}

// resolve maps a relative artifact path onto the root, rejecting escapes.
func (l *Local) resolve(artifactPath string) (string, error) {
	if artifactPath == "" {
		return l.root, nil
	}

	clean := path.Clean("/" + filepath.ToSlash(artifactPath))
	if strings.HasPrefix(clean, "/..") {
		return "", fmt.Errorf("artifacts: path %q escapes the artifact root", artifactPath)
	}

	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from the tracking client, not remote input
	if err != nil {
		return fmt.Errorf("artifacts: open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("artifacts: %w", err)
	}

	out, err := os.Create(dst) //nolint:gosec // destination is inside the artifact root
	if err != nil {
		return fmt.Errorf("artifacts: create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("artifacts: copy %s: %w", src, err)
	}

	return out.Close()
}

// LogText writes text as a named artifact file.
func LogText(ctx context.Context, repo Repository, text, artifactFile string) error {
	return logBytes(ctx, repo, []byte(text), artifactFile)
}

// LogJSON writes v as a pretty-printed JSON artifact file.
func LogJSON(ctx context.Context, repo Repository, v any, artifactFile string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifacts: marshal %s: %w", artifactFile, err)
	}

	return logBytes(ctx, repo, data, artifactFile)
}

func logBytes(ctx context.Context, repo Repository, data []byte, artifactFile string) error {
	tmp, err := os.MkdirTemp("", "newron-artifact-")
	if err != nil {
		return fmt.Errorf("artifacts: temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	name := path.Base(filepath.ToSlash(artifactFile))
	local := filepath.Join(tmp, name)
	if err := os.WriteFile(local, data, 0o644); err != nil { //nolint:gosec // artifacts are not secrets
		return fmt.Errorf("artifacts: write %s: %w", name, err)
	}

	return repo.Log(ctx, local, path.Dir(filepath.ToSlash(artifactFile)))
}
