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

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.groups)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var seen []string
	r.Use(func(c *gin.Context) {
		seen = append(seen, "api")
		c.Next()
	})

	group := NewDomainGroup("waves", "/waves").Use(func(c *gin.Context) {
		seen = append(seen, "group")
		c.Next()
	})
	group.GET("/:id", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})
	group.POST("", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	routes := r.Register(group).Setup()
	assert.Equal(t, []RouteInfo{
		{Group: "waves", Method: http.MethodGet, Path: "/api/v1/waves/:id"},
		{Group: "waves", Method: http.MethodPost, Path: "/api/v1/waves"},
	}, routes)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/waves/42", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
	assert.Equal(t, []string{"api", "group"}, seen)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/waves", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/waves/42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("receiving", "/receiving-orders").
		GET("/:id", func(*gin.Context) {}).
		POST("/:id/sessions", func(*gin.Context) {})

	assert.Equal(t, "receiving", g.name)
	assert.Len(t, g.routes, 2)
	assert.Equal(t, http.MethodPost, g.routes[1].method)
}
