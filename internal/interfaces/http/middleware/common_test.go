package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/equiptrack/backend/internal/infrastructure/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCORSServer(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/transfers", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/transfers", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	t.Run("default whitelist is empty so cross-origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/transfers", nil)
		req.Header.Set("Origin", "http://unknown.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same-origin request passes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/transfers", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("preflight answers 204", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/transfers", nil)
		req.Header.Set("Origin", "http://unknown.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestCORSWithConfig(t *testing.T) {
	t.Run("whitelisted origin is echoed back", func(t *testing.T) {
		router := newCORSServer(CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000", "https://app.example.com"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type", BranchIDHeader, DeviceIDHeader},
			AllowCredentials: true,
		})

		for _, origin := range []string{"http://localhost:3000", "https://app.example.com"} {
			req := httptest.NewRequest("GET", "/transfers", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		}
	})

	t.Run("unlisted origin gets no CORS headers", func(t *testing.T) {
		router := newCORSServer(CORSConfig{
			AllowOrigins: []string{"https://app.example.com"},
		})

		req := httptest.NewRequest("GET", "/transfers", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		router := newCORSServer(CORSConfig{
			AllowOrigins: []string{"*"},
		})

		req := httptest.NewRequest("GET", "/transfers", nil)
		req.Header.Set("Origin", "http://anywhere.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight advertises branch and device headers", func(t *testing.T) {
		router := newCORSServer(DefaultCORSConfig())

		req := httptest.NewRequest("OPTIONS", "/transfers", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/transfers", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an ID when absent", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/transfers", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		id := w.Header().Get("X-Request-ID")
		assert.NotEmpty(t, id)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("preserves a caller-supplied ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/transfers", nil)
		req.Header.Set("X-Request-ID", "caller-id-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "caller-id-1", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "caller-id-1", w.Body.String())
	})

	t.Run("generated IDs are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 20; i++ {
			req := httptest.NewRequest("GET", "/transfers", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			id := w.Header().Get("X-Request-ID")
			assert.False(t, seen[id], "duplicate request id %q", id)
			seen[id] = true
		}
	})

	t.Run("threads the ID into the request context", func(t *testing.T) {
		engine := gin.New()
		engine.Use(RequestID())
		engine.GET("/transfers", func(c *gin.Context) {
			// downstream code (gorm traces) reads the id from here
			c.String(http.StatusOK, logger.GetRequestID(c.Request.Context()))
		})

		req := httptest.NewRequest("GET", "/transfers", nil)
		req.Header.Set("X-Request-ID", "ctx-id-7")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "ctx-id-7", w.Body.String())
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/transfers", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest("GET", "/transfers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
}
