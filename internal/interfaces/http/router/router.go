// Package router wires handlers into versioned route groups.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// RouteInfo describes one registered endpoint.
type RouteInfo struct {
	Group  string
	Method string
	Path   string
}

// Router mounts domain groups under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	groups     []*DomainGroup
}

type RouterOption func(*Router)

// WithAPIVersion sets the version segment, e.g. "v1".
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware that runs before every group's own middleware.
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(group *DomainGroup) *Router {
	r.groups = append(r.groups, group)
	return r
}

// Setup mounts every group and returns what was registered.
func (r *Router) Setup() []RouteInfo {
	base := "/api/" + r.apiVersion
	api := r.engine.Group(base)
	api.Use(r.middleware...)

	var routes []RouteInfo
	for _, g := range r.groups {
		group := api.Group(g.prefix)
		group.Use(g.middleware...)
		for _, rt := range g.routes {
			group.Handle(rt.method, rt.path, rt.handlers...)
			routes = append(routes, RouteInfo{
				Group:  g.name,
				Method: rt.method,
				Path:   path.Join(base, g.prefix, rt.path),
			})
		}
	}
	return routes
}

// DomainGroup collects the routes of one area of the API under a prefix.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []route
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

func (g *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodGet, path, handlers)
}

func (g *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.handle(http.MethodPost, path, handlers)
}

func (g *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: path, handlers: handlers})
	return g
}
