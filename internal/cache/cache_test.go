package cache

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, ok, err := s.Get("AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("AAPL", []byte(`{"close":10}`)))
	payload, ok, err := s.Get("AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"close":10}`, string(payload))
}

func TestMemoryStore_CopiesPayload(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	buf := []byte(`{"close":10}`)
	require.NoError(t, s.Set("AAPL", buf))
	buf[2] = 'x'

	payload, ok, _ := s.Get("AAPL")
	require.True(t, ok)
	assert.JSONEq(t, `{"close":10}`, string(payload))
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := NewSQLiteStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get("AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("AAPL", []byte(`{"close":10}`)))
	require.NoError(t, s.Set("AAPL", []byte(`{"close":11}`)))

	payload, ok, err := s.Get("AAPL")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"close":11}`, string(payload))
}

func TestSQLiteStore_SessionScoped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := NewSQLiteStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, first.Set("AAPL", []byte(`{"close":10}`)))
	require.NoError(t, first.Close())

	// A new store on the same file is a new session: old entries are
	// invisible even though the row is still on disk.
	second, err := NewSQLiteStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	_, ok, err := second.Get("AAPL")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewsKey(t *testing.T) {
	assert.Equal(t, "AAPL-news", NewsKey("AAPL"))
}
