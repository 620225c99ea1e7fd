// Package pyprobe checks for Python packages by invoking a Python
// interpreter. Flavor probes use it to tell an uninstalled framework apart
// from a broken one: no interpreter or a failed import means the dependency
// is absent, anything else is a real fault.
package pyprobe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/newronai/newron-go/pkg/flavor"
)

// EnvPython overrides interpreter discovery with an explicit binary path.
const EnvPython = "NEWRON_PYTHON"

// Runner executes an interpreter invocation. The default runner shells out;
// tests substitute their own.
type Runner interface {
	Run(ctx context.Context, interpreter string, args ...string) (stdout string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, interpreter string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, interpreter, args...)

	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return out.String(), fmt.Errorf("%w: %s", err, strings.TrimSpace(errOut.String()))
	}

	return out.String(), nil
}

// Prober locates a Python interpreter and probes for importable modules.
type Prober struct {
	// Runner executes interpreter commands; nil uses os/exec.
	Runner Runner
	// Timeout bounds a single probe; zero means 30 seconds.
	Timeout time.Duration

	lookupOnce  sync.Once
	interpreter string
}

// DefaultProber is the prober package-level helpers use.
var DefaultProber = &Prober{}

func (p *Prober) runner() Runner {
	if p.Runner != nil {
		return p.Runner
	}

	return execRunner{}
}

// Interpreter resolves the Python binary: NEWRON_PYTHON when set, otherwise
// python3 then python on PATH. Empty when none is available. The lookup is
// cached for the prober's lifetime.
func (p *Prober) Interpreter() string {
	p.lookupOnce.Do(func() {
		if explicit := os.Getenv(EnvPython); explicit != "" {
			p.interpreter = explicit
			return
		}
		for _, candidate := range []string{"python3", "python"} {
			if path, err := exec.LookPath(candidate); err == nil {
				p.interpreter = path
				return
			}
		}
	})

	return p.interpreter
}

// HasModule probes for an importable Python module. It returns nil when the
// import succeeds, flavor.ErrDependencyAbsent when no interpreter is
// available or the import fails with ImportError, and the underlying error
// for anything else.
func (p *Prober) HasModule(ctx context.Context, module string) error {
	interpreter := p.Interpreter()
	if interpreter == "" {
		return fmt.Errorf("pyprobe: no python interpreter: %w", flavor.ErrDependencyAbsent)
	}

	timeout := p.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	script := fmt.Sprintf("import importlib, sys\n"+
		"try:\n    importlib.import_module(%q)\nexcept ImportError:\n    sys.exit(42)\n", module)

	_, err := p.runner().Run(ctx, interpreter, "-c", script)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if ctx.Err() == nil && errors.As(err, &exitErr) && exitErr.ExitCode() == 42 {
		return fmt.Errorf("pyprobe: module %q not installed: %w", module, flavor.ErrDependencyAbsent)
	}

	return fmt.Errorf("pyprobe: probe module %q: %w", module, err)
}

// HasModule probes with the default prober.
func HasModule(ctx context.Context, module string) error {
	return DefaultProber.HasModule(ctx, module)
}
