package pyprobe

import (
	"context"
	"errors"
	"testing"

	"github.com/newronai/newron-go/pkg/flavor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	err  error
	args []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, error) {
	f.args = args

	return "", f.err
}

func TestInterpreterPrefersEnvOverride(t *testing.T) {
	t.Setenv(EnvPython, "/opt/py/bin/python3")

	p := &Prober{}
	assert.Equal(t, "/opt/py/bin/python3", p.Interpreter())
}

func TestHasModuleSuccess(t *testing.T) {
	t.Setenv(EnvPython, "/usr/bin/python3")

	runner := &fakeRunner{}
	p := &Prober{Runner: runner}

	require.NoError(t, p.HasModule(context.Background(), "sklearn"))
	require.Len(t, runner.args, 2)
	assert.Equal(t, "-c", runner.args[0])
	assert.Contains(t, runner.args[1], `"sklearn"`)
}

func TestHasModuleNoInterpreter(t *testing.T) {
	t.Setenv(EnvPython, "")
	t.Setenv("PATH", t.TempDir())

	p := &Prober{}
	err := p.HasModule(context.Background(), "sklearn")
	require.ErrorIs(t, err, flavor.ErrDependencyAbsent)
}

func TestHasModuleOtherFailure(t *testing.T) {
	t.Setenv(EnvPython, "/usr/bin/python3")

	probeErr := errors.New("segfault")
	p := &Prober{Runner: &fakeRunner{err: probeErr}}

	err := p.HasModule(context.Background(), "tensorflow")
	require.Error(t, err)
	assert.NotErrorIs(t, err, flavor.ErrDependencyAbsent)
	assert.ErrorIs(t, err, probeErr)
}
