package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedEngine(t *testing.T, status int, handler gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.InfoLevel)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set("request_id", "req-test")
		c.Next()
	})
	engine.Use(GinMiddleware(zap.New(core)))
	engine.GET("/resource", func(c *gin.Context) {
		if handler != nil {
			handler(c)
		}
		c.Status(status)
	})
	return engine, logs
}

func requestLogEntry(t *testing.T, logs *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestGinMiddleware(t *testing.T) {
	t.Run("successful request logs at info", func(t *testing.T) {
		engine, logs := newObservedEngine(t, http.StatusOK, nil)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))

		entry := requestLogEntry(t, logs)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		fields := entry.ContextMap()
		assert.Equal(t, int64(http.StatusOK), fields["status"])
		assert.Equal(t, http.MethodGet, fields["method"])
		assert.Equal(t, "/resource", fields["path"])
		assert.Equal(t, "req-test", fields["request_id"])
		assert.Contains(t, fields, "latency")
		assert.Contains(t, fields, "client_ip")
	})

	t.Run("client error logs at warn", func(t *testing.T) {
		engine, logs := newObservedEngine(t, http.StatusUnprocessableEntity, nil)

		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/resource", nil))

		assert.Equal(t, zapcore.WarnLevel, requestLogEntry(t, logs).Level)
	})

	t.Run("server error logs at error", func(t *testing.T) {
		engine, logs := newObservedEngine(t, http.StatusInternalServerError, nil)

		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/resource", nil))

		assert.Equal(t, zapcore.ErrorLevel, requestLogEntry(t, logs).Level)
	})

	t.Run("query string is captured", func(t *testing.T) {
		engine, logs := newObservedEngine(t, http.StatusOK, nil)

		engine.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodGet, "/resource?material_id=abc", nil))

		assert.Equal(t, "material_id=abc", requestLogEntry(t, logs).ContextMap()["query"])
	})

	t.Run("gin errors are collected", func(t *testing.T) {
		engine, logs := newObservedEngine(t, http.StatusOK, func(c *gin.Context) {
			_ = c.Error(assert.AnError)
		})

		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/resource", nil))

		assert.Contains(t, requestLogEntry(t, logs).ContextMap(), "errors")
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)

	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/boom", func(c *gin.Context) {
		panic("unexpected state")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := logs.FilterMessage("Panic recovered").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap(), "stacktrace")
}

func TestGetGinLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns the stored logger", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		stored := zap.NewNop()
		c.Set("logger", stored)

		assert.Same(t, stored, GetGinLogger(c))
	})

	t.Run("falls back to nop when unset", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		assert.NotNil(t, GetGinLogger(c))
	})

	t.Run("falls back to nop on wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("logger", "not a logger")

		assert.NotNil(t, GetGinLogger(c))
	})
}
