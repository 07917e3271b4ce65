package server

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing. A path may be registered once per method.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware

	mu     sync.Mutex
	routes map[string]map[string]http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		routes:      make(map[string]map[string]http.Handler),
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware only wraps handlers registered after the call.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a [Handler] for the specified HTTP method and path.
//
// The handler is wrapped with all registered middleware. Requests with a method that has no handler
// for the path get 405 with an Allow header.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	wrapped := r.Apply(handler)
	method = strings.ToUpper(method)

	r.mu.Lock()
	defer r.mu.Unlock()

	methods, ok := r.routes[path]
	if ok {
		methods[method] = wrapped
		return
	}

	methods = map[string]http.Handler{method: wrapped}
	r.routes[path] = methods

	r.mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		h, found := methods[strings.ToUpper(req.Method)]
		allow := allowed(methods)
		r.mu.Unlock()

		if !found {
			w.Header().Set("Allow", allow)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, req)
	}))
}

func allowed(methods map[string]http.Handler) string {
	names := lo.Keys(methods)
	slices.Sort(names)
	return strings.Join(names, ", ")
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}
