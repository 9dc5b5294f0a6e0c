package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/poputka/ride-core/sdk/config"
)

func newCORSEngine(cfg *config.CORSConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORSMiddleware(cfg))
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return engine
}

func TestCORSAllowAll(t *testing.T) {
	engine := newCORSEngine(&config.CORSConfig{
		Origins: []string{"*"},
		Methods: []string{"*"},
		Headers: []string{"*"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://poputka.app")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSSpecificOrigin(t *testing.T) {
	cfg := &config.CORSConfig{
		Origins: []string{"https://poputka.app"},
		Methods: []string{"GET", "POST"},
		Headers: []string{"Content-Type"},
	}
	engine := newCORSEngine(cfg)

	t.Run("命中的来源被回显", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://poputka.app")
		engine.ServeHTTP(w, req)

		assert.Equal(t, "https://poputka.app", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET,POST", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("未命中的来源不放行", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example")
		engine.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("预检请求直接返回204", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "https://poputka.app")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestApplicationRegistry(t *testing.T) {
	app := NewApplication()
	cfg := &config.Config{ProjectName: "poputka"}
	app.SetConfig(cfg)
	assert.Same(t, cfg, app.GetConfig())

	app.SetRouters([]Router{{HttpMethod: "GET", RelativePath: "/", Handler: "root"}})
	routers := app.GetRouters()
	assert.Len(t, routers, 1)
	assert.Equal(t, "root", routers[0].Handler)
}
