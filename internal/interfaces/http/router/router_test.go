package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRegistrar struct {
	path       string
	registered bool
}

func (s *stubRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	s.registered = true
	rg.GET(s.path, func(c *gin.Context) {
		c.String(http.StatusOK, s.path)
	})
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
}

func TestWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(&stubRegistrar{path: "/ping"})
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v2/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterAndSetup(t *testing.T) {
	engine := gin.New()
	first := &stubRegistrar{path: "/transfers"}
	second := &stubRegistrar{path: "/auth"}

	NewRouter(engine).Register(first).Register(second).Setup()

	assert.True(t, first.registered)
	assert.True(t, second.registered)

	for _, path := range []string{"/api/v1/transfers", "/api/v1/auth"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRegisterIsChainable(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Same(t, r, r.Register(&stubRegistrar{path: "/x"}))
}

func TestRoutesBeforeSetupAreNotServed(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(&stubRegistrar{path: "/transfers"})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/transfers", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
