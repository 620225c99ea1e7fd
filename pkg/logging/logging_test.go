package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureAndFor(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "debug")

	For("tracking").Debug("probing store", "scheme", "file")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "component=tracking")
	assert.Contains(t, out, "probing store")
}

func TestConfigureLevelFiltersLowerRecords(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "warn")

	log := For("flavor")
	log.Info("ignored")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "ignored")
	assert.Contains(t, out, "kept")
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, "chatty")

	log := For("cli")
	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}
