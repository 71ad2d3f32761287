package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/masallsome/gwsyncer/pkg/discovery"
	"github.com/masallsome/gwsyncer/pkg/gateway"
	"github.com/masallsome/gwsyncer/pkg/scheduler"
	"github.com/masallsome/gwsyncer/pkg/store"
)

func newTestServer(apiKey string) *Server {
	return New(discovery.NewRegistry(), gateway.NewRegistry(), store.NewMemory(), scheduler.New(), apiKey)
}

func TestAuthMiddlewareRejectsMissingKey(t *testing.T) {
	s := newTestServer("correct-key")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthMiddlewareRejectsWrongKey(t *testing.T) {
	s := newTestServer("correct-key")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("SYNCER-API-KEY", "wrong-key")

	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthMiddlewareAllowsMatchingKey(t *testing.T) {
	s := newTestServer("correct-key")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("SYNCER-API-KEY", "correct-key")

	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestAuthMiddlewareDisabledWhenKeyEmpty(t *testing.T) {
	s := newTestServer("")
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	s.Router().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
