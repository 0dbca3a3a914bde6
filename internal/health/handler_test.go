package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Status {
	t.Helper()
	var s Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	return s
}

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().HandleLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decode(t, rec).Status)
}

func TestReadyAllChecksPass(t *testing.T) {
	h := NewHandler()
	h.AddCheck("store", func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	h.HandleReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	s := decode(t, rec)
	assert.Equal(t, "ready", s.Status)
	assert.Equal(t, map[string]string{"store": "healthy"}, s.Checks)
}

func TestReadyFailingCheck(t *testing.T) {
	h := NewHandler()
	h.AddCheck("store", func(context.Context) error { return nil })
	h.AddCheck("remote", func(context.Context) error { return errors.New("unreachable") })

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	s := decode(t, rec)
	assert.Equal(t, "not_ready", s.Status)
	assert.Equal(t, "healthy", s.Checks["store"])
	assert.Equal(t, "not_ready: unreachable", s.Checks["remote"])
}
