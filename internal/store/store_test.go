package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStore_LastSearch(t *testing.T) {
	s := New()
	assert.Empty(t, s.LastID())
	assert.Nil(t, s.LastPayload())

	s.SetLast("abc123", map[string]any{"country": 1})
	assert.Equal(t, "abc123", s.LastID())
	assert.Equal(t, map[string]any{"country": 1}, s.LastPayload())

	// Only the most recent search is retained.
	s.SetLast("def456", map[string]any{"country": 4})
	assert.Equal(t, "def456", s.LastID())
	assert.Equal(t, map[string]any{"country": 4}, s.LastPayload())
}

func TestStore_AuthTokens(t *testing.T) {
	s := New()

	s.UpdateAuth("sess-1", "ref-1")
	session, referrer := s.Auth()
	assert.Equal(t, "sess-1", session)
	assert.Equal(t, "ref-1", referrer)

	// Empty values keep the existing tokens.
	s.UpdateAuth("", "ref-2")
	session, referrer = s.Auth()
	assert.Equal(t, "sess-1", session)
	assert.Equal(t, "ref-2", referrer)

	s.UpdateAuth("", "")
	session, referrer = s.Auth()
	assert.Equal(t, "sess-1", session)
	assert.Equal(t, "ref-2", referrer)
}
