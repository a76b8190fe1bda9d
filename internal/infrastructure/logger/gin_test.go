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

func init() {
	gin.SetMode(gin.TestMode)
}

// newObservedEngine returns a gin engine with the logging middleware
// installed and an observer capturing everything it logs.
func newObservedEngine(extra ...gin.HandlerFunc) (*gin.Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := gin.New()
	engine.Use(extra...)
	engine.Use(GinMiddleware(zap.New(core)))
	return engine, logs
}

func fieldMap(entry observer.LoggedEntry) map[string]any {
	out := make(map[string]any, len(entry.Context))
	for _, f := range entry.Context {
		out[f.Key] = f
	}
	return out
}

func TestGinMiddleware_LogsRequestLine(t *testing.T) {
	engine, logs := newObservedEngine()
	engine.GET("/transfers", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/transfers?limit=5", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
	assert.Equal(t, "HTTP Request", entry.Message)

	fields := fieldMap(entry)
	assert.Contains(t, fields, "status")
	assert.Contains(t, fields, "latency")
	assert.Contains(t, fields, "client_ip")
	assert.Contains(t, fields, "query")
	assert.Equal(t, "GET", fields["method"].(zapcore.Field).String)
	assert.Equal(t, "/transfers", fields["path"].(zapcore.Field).String)
}

func TestGinMiddleware_PropagatesRequestID(t *testing.T) {
	setRequestID := func(c *gin.Context) {
		c.Set("request_id", "req-123")
		c.Next()
	}
	engine, logs := newObservedEngine(setRequestID)
	engine.GET("/transfers", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/transfers", nil))

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Equal(t, "req-123", fields["request_id"].(zapcore.Field).String)
}

func TestGinMiddleware_LevelTracksStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   zapcore.Level
	}{
		{"success logs info", http.StatusOK, zapcore.InfoLevel},
		{"client error logs warn", http.StatusNotFound, zapcore.WarnLevel},
		{"server error logs error", http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, logs := newObservedEngine()
			engine.GET("/probe", func(c *gin.Context) {
				c.Status(tt.status)
			})

			engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/probe", nil))

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.want, logs.All()[0].Level)
		})
	}
}

func TestGinMiddleware_CollectsGinErrors(t *testing.T) {
	engine, logs := newObservedEngine()
	engine.GET("/broken", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusBadGateway)
	})

	engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))

	require.Equal(t, 1, logs.Len())
	fields := fieldMap(logs.All()[0])
	assert.Contains(t, fields, "errors")
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	engine := gin.New()
	engine.Use(Recovery(zap.New(core)))
	engine.GET("/panic", func(c *gin.Context) {
		panic("unexpected state")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
}

func TestGetGinLogger(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	// Without the middleware the accessor degrades to a nop logger
	assert.NotNil(t, GetGinLogger(c))

	stored := zap.NewExample()
	c.Set(ginLoggerKey, stored)
	assert.Same(t, stored, GetGinLogger(c))
}
