package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"entrykit/internal/auth"
	"entrykit/internal/config"
	"entrykit/internal/metadata"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Database:      config.DatabaseConfig{Driver: "sqlite", Name: ":memory:"},
		CP:            config.CPConfig{BaseURL: "https://cms.test", Trigger: "admin"},
		Validation:    config.ValidationConfig{UniqueScope: "site-a"},
		ProjectConfig: config.ProjectConfigConfig{Path: t.TempDir()},
		JWTSecret:     "secret",
	}
}

func TestApp_AdminAndEntriesFlow(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	f := a.Fiber()

	token, err := auth.GenerateAccessToken("ops", []string{"admin"}, "secret", time.Minute)
	require.NoError(t, err)

	call := func(method, path, body string) (int, map[string]any) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, _ := http.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := f.Test(req, -1)
		require.NoError(t, err)
		var out map[string]any
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &out)
		return resp.StatusCode, out
	}

	status, body := call("POST", "/api/_admin/entry-types", `{"name":"News","handle":"news"}`)
	require.Equal(t, 201, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "https://cms.test/admin/settings/entry-types/1", data["editUrl"])
	assert.NotNil(t, a.Registry.GetByHandle("news"))

	status, _ = call("POST", "/api/entries", `{"type":"news","title":"Hello"}`)
	assert.Equal(t, 201, status)

	status, body = call("GET", "/api/entries?type=news", "")
	assert.Equal(t, 200, status)
	assert.Len(t, body["data"], 1)

	// the unique scope configured for the app reaches the store
	taken, err := a.EntryTypes.Exists(context.Background(), metadata.UniqueQuery{Attribute: "handle", Value: "news", Scope: "site-a"})
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestApp_RoutesRequireAuth(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	f := a.Fiber()

	req, _ := http.NewRequest("GET", "/health", nil)
	resp, err := f.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/api/_admin/entry-types", nil)
	resp, err = f.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	editor, err := auth.GenerateAccessToken("ed", []string{"editor"}, "secret", time.Minute)
	require.NoError(t, err)
	req, _ = http.NewRequest("GET", "/api/_admin/entry-types", nil)
	req.Header.Set("Authorization", "Bearer "+editor)
	resp, err = f.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/api/entries", nil)
	req.Header.Set("Authorization", "Bearer "+editor)
	resp, err = f.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
