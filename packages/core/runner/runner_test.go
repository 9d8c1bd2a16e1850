package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitcheck/packages/assertions"
	"github.com/abdul-hamid-achik/hitcheck/packages/core/cases"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(cfg *Config) (*Runner, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	if cfg == nil {
		cfg = &Config{FollowRedirect: true, ValidateSSL: true}
	}
	cfg.Logger = logger
	return NewRunner(cfg), hook
}

func jsonServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func writeCases(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "api.case.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func userCase(name, url string, status int, id int) string {
	return fmt.Sprintf(`  - name: %s
    request:
      url: %s
    expect:
      status: %d
      body:
        message: Success
        data:
          id: %d
`, name, url, status, id)
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r.client)
		assert.NotNil(t, r.resolver)
		assert.NotEmpty(t, r.RunID())
	})

	t.Run("run IDs are unique", func(t *testing.T) {
		assert.NotEqual(t, NewRunner(nil).RunID(), NewRunner(nil).RunID())
	})
}

func TestRunner_RunFile_Pass(t *testing.T) {
	server := jsonServer(t, 200, `{"data": {"id": 123}, "message": "Success"}`)
	path := writeCases(t, "cases:\n"+userCase("getUser", server.URL+"/users/123", 200, 123))

	r, _ := newTestRunner(nil)
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, r.RunID(), result.RunID)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Cases, 1)

	cr := result.Cases[0]
	assert.True(t, cr.Passed)
	require.Len(t, cr.Results, 2)
	assert.Equal(t, "Status code is 200", cr.Results[0].Name)
	assert.Equal(t, "getUser response matches expected body", cr.Results[1].Name)
	assert.Equal(t, 200, cr.Response.StatusCode)
}

func TestRunner_RunFile_BodyMismatch(t *testing.T) {
	server := jsonServer(t, 200, `{"message": "Success", "data": {"id": 124}}`)
	path := writeCases(t, "cases:\n"+userCase("getUser", server.URL, 200, 123))

	r, hook := newTestRunner(nil)
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)

	body := result.Cases[0].Results[1]
	assert.False(t, body.Passed)
	assert.ErrorIs(t, body.Err, assertions.ErrBodyMismatch)

	var sawID bool
	for _, e := range hook.AllEntries() {
		if e.Data["case"] == "getUser" && e.Data["run"] == r.RunID() {
			sawID = true
		}
	}
	assert.True(t, sawID, "diagnostics should carry run and case fields")
}

func TestRunner_RunFile_TransportErrorIsNotFatal(t *testing.T) {
	server := jsonServer(t, 200, `{"message": "Success", "data": {"id": 123}}`)
	content := "cases:\n" +
		userCase("unreachable", "http://127.0.0.1:1/nothing", 200, 123) +
		userCase("reachable", server.URL, 200, 123)
	path := writeCases(t, content)

	r, _ := newTestRunner(nil)
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, result.Cases, 2)
	assert.Error(t, result.Cases[0].Error)
	assert.False(t, result.Cases[0].Passed)
	require.Len(t, result.Cases[0].Results, 2)
	assert.Contains(t, result.Cases[0].Results[0].Message(), "request failed")
	assert.True(t, result.Cases[1].Passed)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 2, result.Passed)
}

func TestRunner_Bail(t *testing.T) {
	server := jsonServer(t, 500, `{}`)
	content := "cases:\n" +
		userCase("first", server.URL, 200, 1) +
		userCase("second", server.URL, 200, 2)
	path := writeCases(t, content)

	r, _ := newTestRunner(&Config{Bail: true, FollowRedirect: true, ValidateSSL: true})
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, result.Cases, 2)
	assert.True(t, result.Cases[1].Skipped)
	assert.Equal(t, SkipReasonBail, result.Cases[1].SkipReason)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunner_NameFilter(t *testing.T) {
	server := jsonServer(t, 200, `{"message": "Success", "data": {"id": 1}}`)
	content := "cases:\n" +
		userCase("getUser", server.URL, 200, 1) +
		userCase("listOrders", server.URL, 200, 1)
	path := writeCases(t, content)

	r, _ := newTestRunner(&Config{NameFilter: "USER", FollowRedirect: true, ValidateSSL: true})
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, result.Cases, 1)
	assert.Equal(t, "getUser", result.Cases[0].Name)
}

func TestRunner_CanceledContext(t *testing.T) {
	server := jsonServer(t, 200, `{}`)
	path := writeCases(t, "cases:\n"+userCase("getUser", server.URL, 200, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, _ := newTestRunner(nil)
	result, err := r.RunFile(ctx, path)

	require.NoError(t, err)
	require.Len(t, result.Cases, 1)
	assert.True(t, result.Cases[0].Skipped)
	assert.Equal(t, SkipReasonCanceled, result.Cases[0].SkipReason)
}

func TestRunner_UpdateRecordsExpectation(t *testing.T) {
	server := jsonServer(t, 201, `{"message": "Created", "data": {"id": 7}}`)
	path := writeCases(t, "cases:\n"+userCase("createUser", server.URL, 200, 123))

	r, _ := newTestRunner(&Config{Update: true, FollowRedirect: true, ValidateSSL: true})
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.True(t, result.Cases[0].Updated)
	assert.True(t, result.Cases[0].Passed)
	assert.Equal(t, 0, result.Failed)

	file, err := cases.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 201, file.Cases[0].Expect.Status)
	assert.Equal(t, map[string]any{
		"message": "Created",
		"data":    map[string]any{"id": 7},
	}, file.Cases[0].Expect.Body)
}

func TestRunner_UpdateSkipsNonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer server.Close()
	path := writeCases(t, "cases:\n"+userCase("text", server.URL, 200, 1))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	r, _ := newTestRunner(&Config{Update: true, FollowRedirect: true, ValidateSSL: true})
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.False(t, result.Cases[0].Passed)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestRunner_RunFile_ParseError(t *testing.T) {
	path := writeCases(t, "cases: []")

	r, _ := newTestRunner(nil)
	_, err := r.RunFile(context.Background(), path)

	var parseErr *cases.ParseError
	require.Error(t, err)
	assert.True(t, errors.As(err, &parseErr))
}

func TestRunner_ResolvesVariables(t *testing.T) {
	server := jsonServer(t, 200, `{"message": "Success", "data": {"id": 5}}`)
	t.Setenv("HITCHECK_RUNNER_BASE", server.URL)
	path := writeCases(t, "cases:\n"+userCase("getUser", "${HITCHECK_RUNNER_BASE}/users/5", 200, 5))

	r, _ := newTestRunner(nil)
	result, err := r.RunFile(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, result.Cases[0].Passed)
	assert.Equal(t, server.URL+"/users/5", result.Cases[0].Request.URL)
}
