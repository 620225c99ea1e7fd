package main

import (
	"strings"
	"testing"

	"github.com/newronai/newron-go/pkg/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"ID", "NAME"},
		[][]string{
			{"1", "short"},
			{"42", "a-much-longer-name"},
		},
	)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	// Name column starts at the same offset on every row.
	assert.Equal(t, strings.Index(lines[1], "short"), strings.Index(lines[2], "a-much-longer-name"))
}

func TestPadHandlesWideRunes(t *testing.T) {
	assert.Equal(t, "日本  ", pad("日本", 6))
	assert.Equal(t, "abc", pad("abc", 2))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abcdefgh", shortID("abcdefgh12345678"))
	assert.Equal(t, "abc", shortID("abc"))
}

func TestRunMarkdown(t *testing.T) {
	run := &tracking.Run{
		Info: tracking.RunInfo{
			RunID:        "run1",
			RunName:      "baseline",
			ExperimentID: "0",
			Status:       tracking.StatusFinished,
			StartTime:    1700000000000,
		},
		Data: tracking.RunData{
			Params:  []tracking.Param{{Key: "alpha", Value: "0.5"}},
			Metrics: []tracking.Metric{{Key: "loss", Value: 0.25, Step: 3}},
			Tags:    []tracking.RunTag{{Key: "env", Value: "ci"}},
		},
	}

	md := runMarkdown(run)
	assert.Contains(t, md, "# baseline")
	assert.Contains(t, md, "alpha")
	assert.Contains(t, md, "loss")
	assert.Contains(t, md, "step 3")
	assert.Contains(t, md, "env")
}

func TestParamFlags(t *testing.T) {
	p := paramFlags{}
	require.NoError(t, p.Set("alpha=0.5"))
	require.NoError(t, p.Set("data=/tmp/x=y"))
	assert.Equal(t, "0.5", p["alpha"])
	assert.Equal(t, "/tmp/x=y", p["data"])

	require.Error(t, p.Set("novalue"))
	require.Error(t, p.Set("=0.5"))
}

func TestRunSummaryIsStable(t *testing.T) {
	run := &tracking.Run{
		Info: tracking.RunInfo{Status: tracking.StatusFinished},
		Data: tracking.RunData{
			Params:  []tracking.Param{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}},
			Metrics: []tracking.Metric{{Key: "loss", Value: 0.5, Step: 1}},
		},
	}

	first := runSummary(run)
	assert.Equal(t, first, runSummary(run))
	assert.Contains(t, first, "param a = 1")
	assert.Contains(t, first, "metric loss = 0.5 (step 1)")
}
