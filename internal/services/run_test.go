package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunClientExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/execute", r.URL.Path)

		var req pistonRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "python", req.Language)
		assert.Equal(t, "3.10", req.Version)
		require.Len(t, req.Files, 1)
		assert.Equal(t, "print(input())", req.Files[0].Content)
		assert.Equal(t, "hi", req.Stdin)

		_, _ = w.Write([]byte(`{"run":{"stdout":"hi\n","stderr":"","code":0}}`))
	}))
	defer srv.Close()

	c := NewRunClient(srv.URL)
	out, err := c.Execute(context.Background(), RunRequest{
		Language: "python", Version: "3.10", Code: "print(input())", Stdin: "hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out.Stdout)
	assert.Equal(t, 0, out.ExitCode)
}

func TestRunClientExecuteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"unknown language"}`))
	}))
	defer srv.Close()

	_, err := NewRunClient(srv.URL).Execute(context.Background(), RunRequest{Language: "klingon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown language")
}

func TestRunClientRuntimes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/runtimes", r.URL.Path)
		_, _ = w.Write([]byte(`[{"language":"go","version":"1.22"},{"language":"python","version":"3.10"}]`))
	}))
	defer srv.Close()

	langs, err := NewRunClient(srv.URL).Runtimes(context.Background())
	require.NoError(t, err)
	require.Len(t, langs, 2)
	assert.Equal(t, "go", langs[0].Language)
}
