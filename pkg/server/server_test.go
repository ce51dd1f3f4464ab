package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewChiRouter_RecoversPanics(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mux := NewChiRouter(logger)
	mux.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	// when
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Internal Server Error", body["error"])
	assert.Contains(t, buf.String(), "Panic recovered")
}

func Test_NewHTTPServer(t *testing.T) {
	srv := NewHTTPServer(HTTPConfig{Port: 8080, MaxHeaderBytes: 1 << 20}, "catalog", http.NotFoundHandler())
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 1<<20, srv.MaxHeaderBytes)
	assert.NotNil(t, srv.Handler)
}
