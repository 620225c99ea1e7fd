package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIScheme(t *testing.T) {
	assert.Equal(t, "file", uriScheme("./newronruns"))
	assert.Equal(t, "file", uriScheme("/var/lib/runs"))
	assert.Equal(t, "file", uriScheme("file:///var/lib/runs"))
	assert.Equal(t, "file", uriScheme("C:/runs"))
	assert.Equal(t, "sqlite", uriScheme("sqlite:///var/lib/newron.db"))
	assert.Equal(t, "https", uriScheme("HTTPS://tracking.example.com"))
}

func TestRegisterStoreRejectsDuplicates(t *testing.T) {
	factory := func(string, StoreOptions) (Store, error) { return nil, nil }

	RegisterStore("teststore", factory)
	assert.Panics(t, func() { RegisterStore("teststore", factory) })
	assert.Contains(t, RegisteredSchemes(), "teststore")
}

func TestOpenStoreUnknownScheme(t *testing.T) {
	_, err := OpenStore("ftp://host/runs", StoreOptions{})
	require.Error(t, err)
}

func TestViewTypeMatches(t *testing.T) {
	assert.True(t, ActiveOnly.Matches(LifecycleActive))
	assert.False(t, ActiveOnly.Matches(LifecycleDeleted))
	assert.True(t, DeletedOnly.Matches(LifecycleDeleted))
	assert.False(t, DeletedOnly.Matches(LifecycleActive))
	assert.True(t, All.Matches(LifecycleActive))
	assert.True(t, All.Matches(LifecycleDeleted))
}

func TestLatestOfOrdering(t *testing.T) {
	_, ok := LatestOf(nil)
	assert.False(t, ok)

	// Higher step wins regardless of timestamp.
	latest, ok := LatestOf([]Metric{
		{Key: "loss", Value: 0.9, Timestamp: 100, Step: 0},
		{Key: "loss", Value: 0.4, Timestamp: 50, Step: 2},
		{Key: "loss", Value: 0.5, Timestamp: 200, Step: 1},
	})
	require.True(t, ok)
	assert.Equal(t, 0.4, latest.Value)

	// Equal steps fall back to timestamp.
	latest, _ = LatestOf([]Metric{
		{Key: "loss", Value: 0.9, Timestamp: 100, Step: 1},
		{Key: "loss", Value: 0.4, Timestamp: 300, Step: 1},
	})
	assert.Equal(t, 0.4, latest.Value)

	// Equal step and timestamp fall back to the larger value.
	latest, _ = LatestOf([]Metric{
		{Key: "loss", Value: 0.4, Timestamp: 100, Step: 1},
		{Key: "loss", Value: 0.9, Timestamp: 100, Step: 1},
	})
	assert.Equal(t, 0.9, latest.Value)
}

func TestNewRunID(t *testing.T) {
	a := NewRunID()
	b := NewRunID()

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestValidateKey(t *testing.T) {
	require.NoError(t, validateKey("metric", "loss/train"))
	require.Error(t, validateKey("metric", ""))
	require.Error(t, validateKey("metric", "bad\nkey"))

	long := make([]byte, 251)
	for i := range long {
		long[i] = 'a'
	}
	require.Error(t, validateKey("metric", string(long)))
}
