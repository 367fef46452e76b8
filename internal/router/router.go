// Package router holds the ordered, immutable route table and resolves an
// incoming request to a live handler process. See spec.md §4.5.
package router

import (
	"context"
	"fmt"

	"github.com/shellgate/shellgate/internal/route"
)

// ErrNotFound is returned by Execute when no route matches the request.
var ErrNotFound = fmt.Errorf("no route matches request")

// Router holds routes in declaration order. It is built once at startup
// and never mutated; concurrent Execute calls are safe and retain no
// per-request state, matching spec.md §4.5 and §5.
type Router struct {
	routes []*route.Route
}

// New builds a Router over routes, preserving declaration order. The slice
// is copied so the caller's backing array cannot mutate it afterward.
func New(routes []*route.Route) *Router {
	cp := make([]*route.Route, len(routes))
	copy(cp, routes)
	return &Router{routes: cp}
}

// Routes returns the declaration-ordered route list. The returned slice
// must not be mutated by callers.
func (r *Router) Routes() []*route.Route {
	return r.routes
}

// Execute finds the first route whose pattern matches req and spawns its
// handler. It returns ErrNotFound if nothing matches; any other error is a
// spawn failure from route.Route.Spawn.
func (r *Router) Execute(ctx context.Context, req *route.Request, stderrTag string, sink route.StderrSink) (*route.Process, error) {
	for _, rt := range r.routes {
		bindings, ok := route.Match(rt, req)
		if !ok {
			continue
		}
		return rt.Spawn(ctx, bindings, stderrTag, sink)
	}
	return nil, ErrNotFound
}
