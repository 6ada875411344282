package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/config"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/middleware/requestid"
)

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New(&config.Config{AppName: "svc", Env: config.EnvProduction, Log: config.LogConfig{Level: "chatty"}})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestFromContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	FromContext(requestid.NewContext(context.Background(), "r-7"), base).Info("complaint mutated")
	FromContext(context.Background(), base).Info("no request")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "r-7", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestGinMiddlewareLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(requestid.Middleware(), GinMiddleware(zap.New(core), "/health"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/complaints/:id", func(c *gin.Context) {
		c.Set(ActorIDKey, "staff-1")
		c.Status(http.StatusNotFound)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/health", "/complaints/c-1", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/complaints/:id", fields["route"])
	assert.Equal(t, "staff-1", fields["actor_id"])
	assert.NotEmpty(t, fields["request_id"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
