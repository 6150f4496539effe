package httpx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codequad/internal/services"
)

func newTestAPI(t *testing.T, upstream http.HandlerFunc) *ServicesAPI {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)
	return &ServicesAPI{
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Review:   services.NewReviewClient(srv.URL),
		Run:      services.NewRunClient(srv.URL),
		Scaffold: services.NewScaffoldClient(srv.URL),
	}
}

func TestGetReview(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`"use error wrapping"`))
	})

	rec := httptest.NewRecorder()
	api.GetReview(rec, httptest.NewRequest(http.MethodPost, "/api/ai/review",
		strings.NewReader(`{"code":"func main() {}"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"review":"use error wrapping"}`, rec.Body.String())
}

func TestGetReviewRejectsEmptyCode(t *testing.T) {
	api := newTestAPI(t, func(http.ResponseWriter, *http.Request) {
		t.Error("upstream must not be called")
	})

	rec := httptest.NewRecorder()
	api.GetReview(rec, httptest.NewRequest(http.MethodPost, "/api/ai/review",
		strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReviewUpstreamFailureIsBadGateway(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	rec := httptest.NewRecorder()
	api.GetReview(rec, httptest.NewRequest(http.MethodPost, "/api/ai/review",
		strings.NewReader(`{"code":"x"}`)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRunCode(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"run":{"stdout":"4\n","stderr":"","code":0}}`))
	})

	rec := httptest.NewRecorder()
	api.RunCode(rec, httptest.NewRequest(http.MethodPost, "/api/run",
		strings.NewReader(`{"language":"python","version":"3.10","code":"print(2+2)"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"stdout":"4\n","stderr":"","exitCode":0}`, rec.Body.String())
}

func TestGenerateAPIRequiresRoutes(t *testing.T) {
	api := newTestAPI(t, func(http.ResponseWriter, *http.Request) {
		t.Error("upstream must not be called")
	})

	rec := httptest.NewRecorder()
	api.GenerateAPI(rec, httptest.NewRequest(http.MethodPost, "/api/generate",
		strings.NewReader(`{"routes":[]}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
