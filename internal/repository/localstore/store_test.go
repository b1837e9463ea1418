package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestSetGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("k", payload{Name: "x", Count: 3}))

	var got payload
	found, err := store.Get("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "x", Count: 3}, got)
}

func TestGetMissingKey(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	var got payload
	found, err := store.Get("missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestValuesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("k", payload{Name: "persisted", Count: 1}))

	reopened, err := New(dir)
	require.NoError(t, err)

	var got payload
	found, err := reopened.Get("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", got.Name)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("k", payload{Name: "x"}))
	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))

	var got payload
	found, err := store.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeySanitization(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("a/b:c", payload{Name: "weird"}))

	var got payload
	found, err := store.Get("a/b:c", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "weird", got.Name)
}
