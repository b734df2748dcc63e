package mock

import (
	"net/http"
	"strings"
)

// Route binds a method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Name    string
	Handler http.HandlerFunc
}

// Router matches requests to routes. Paths are compared without regard to
// case or a trailing slash, like the service being emulated.
type Router struct {
	prefix string
	routes []*Route
}

func NewRouter(prefix string) *Router {
	return &Router{
		prefix: normalizePath(prefix),
		routes: make([]*Route, 0),
	}
}

func (r *Router) AddRoute(route *Route) {
	r.routes = append(r.routes, route)
}

func (r *Router) Routes() []*Route {
	return r.routes
}

// Match returns the route for method and path. When the path exists but not
// for method, the route is nil and methodAllowed is false.
func (r *Router) Match(method, path string) (route *Route, methodAllowed bool) {
	path = r.strip(normalizePath(path))
	methodAllowed = true

	for _, rt := range r.routes {
		if !strings.EqualFold(normalizePath(rt.Path), path) {
			continue
		}
		if strings.EqualFold(rt.Method, method) {
			return rt, true
		}
		methodAllowed = false
	}

	return nil, methodAllowed
}

func (r *Router) strip(path string) string {
	if r.prefix == "/" {
		return path
	}
	if len(path) < len(r.prefix) || !strings.EqualFold(path[:len(r.prefix)], r.prefix) {
		return ""
	}
	rest := path[len(r.prefix):]
	if rest != "" && rest[0] != '/' {
		return ""
	}
	return normalizePath(rest)
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}
