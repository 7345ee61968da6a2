package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"blueridge/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	Logger = zap.NewNop()
}

func TestRunHealthChecks(t *testing.T) {
	snap := RunHealthChecks(context.Background(), map[string]HealthCheck{
		"redis":           func(context.Context) error { return nil },
		"google_calendar": func(context.Context) error { return errors.New("unauthorized") },
	})
	assert.True(t, snap.Checks["redis"])
	assert.False(t, snap.Checks["google_calendar"])
	assert.False(t, snap.CheckedAt.IsZero())

	// The snapshot handed out is a copy.
	snap.Checks["redis"] = false
	assert.True(t, GetHealthStatus().Checks["redis"])
}

func TestNewCacheClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewCacheClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")

	addr := mr.Addr()
	mr.Close()
	_, err = NewCacheClient(addr, "", 0)
	assert.Error(t, err)
}

func TestJSONError(t *testing.T) {
	prev := config.AppConfig
	t.Cleanup(func() { config.AppConfig = prev })

	for _, tc := range []struct {
		env         string
		wantDetails string
	}{
		{env: "development", wantDetails: "missing start"},
		{env: "production", wantDetails: ""},
	} {
		t.Run(tc.env, func(t *testing.T) {
			config.AppConfig.Env = tc.env
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/availability", nil)

			JSONError(c, http.StatusBadRequest, "invalid input", "missing start")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "invalid input", body.Error)
			assert.Equal(t, tc.wantDetails, body.Details)
		})
	}
}

func TestErrorHandlerRecovers(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, w.Body.String())
}
