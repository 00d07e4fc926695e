package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "requestid", cfg.ResultIDParam)
	assert.Equal(t, 25, cfg.PollAttempts)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 6*time.Hour, cfg.ListCacheTTL)
	assert.Equal(t, 20, cfg.MaxTours)
	assert.Empty(t, cfg.ModsearchURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("MODSEARCH_URL", "  http://upstream/xml/modsearch.php  ")
	t.Setenv("POLL_ATTEMPTS", "3")
	t.Setenv("POLL_INTERVAL", "500ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "http://upstream/xml/modsearch.php", cfg.ModsearchURL, "url is trimmed")
	assert.Equal(t, 3, cfg.PollAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
}

func TestHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{name: "valid object", raw: `{"User-Agent":"tours/1.0","Cookie":"sid=1"}`, want: map[string]string{"User-Agent": "tours/1.0", "Cookie": "sid=1"}},
		{name: "malformed yields empty", raw: "{not json", want: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{HeadersJSON: tt.raw}
			assert.Equal(t, tt.want, cfg.Headers())
		})
	}
}

func TestSearchIDKeyList(t *testing.T) {
	cfg := Config{SearchIDKeys: " requestid, request_id ,,search_id "}
	assert.Equal(t, []string{"requestid", "request_id", "search_id"}, cfg.SearchIDKeyList())
}
