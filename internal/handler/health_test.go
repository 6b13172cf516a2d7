package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPinger struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func TestHealth_Healthy(t *testing.T) {
	t.Parallel()
	h := NewHealthHandler(&mockPinger{}, "badger")
	rr := httptest.NewRecorder()

	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"badger"}`, rr.Body.String())
}

func TestHealth_StoreDown_Returns503(t *testing.T) {
	t.Parallel()
	h := NewHealthHandler(&mockPinger{
		pingFunc: func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return errors.New("dial tcp: refused")
		},
	}, "surrealdb")
	rr := httptest.NewRecorder()

	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	p := problemOf(t, rr)
	assert.Equal(t, "database unreachable", p.Detail)
	assert.Equal(t, "/health", p.Instance)
}
