// Package router maps task kinds onto routes.
//
// The route table is configuration: it is copied at construction and never
// changes afterwards. A kind missing from the table (or mapped to an empty
// route) resolves to the fallback route, which defaults to RouteSkip.
package router

import (
	"log/slog"

	"github.com/roach88/tickerflow/internal/ir"
)

// Route names the handler category a kind resolves to.
type Route string

// RouteSkip is the sentinel route for tasks that must not run.
const RouteSkip Route = "skip"

// Router resolves kinds to routes.
//
// Thread-safety: Router holds no mutable state and is safe for concurrent use.
type Router struct {
	routes   map[ir.Kind]Route
	fallback Route
	logger   *slog.Logger
}

// New creates a Router. An empty fallback means RouteSkip; a nil logger
// means slog.Default().
func New(routes map[ir.Kind]Route, fallback Route, logger *slog.Logger) *Router {
	table := make(map[ir.Kind]Route, len(routes))
	for k, v := range routes {
		table[k] = v
	}
	if fallback == "" {
		fallback = RouteSkip
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{routes: table, fallback: fallback, logger: logger}
}

// Resolve returns the route for kind, or the fallback route when the kind
// is unmapped.
func (r *Router) Resolve(kind ir.Kind) Route {
	route, ok := r.routes[kind]
	if !ok || route == "" {
		r.logger.Warn("unmapped task kind, using fallback route",
			"kind", kind.String(),
			"fallback", string(r.fallback),
		)
		return r.fallback
	}
	r.logger.Debug("routing kind", "kind", kind.String(), "route", string(route))
	return route
}

// ShouldSkip reports whether kind currently resolves to RouteSkip.
func (r *Router) ShouldSkip(kind ir.Kind) bool {
	return r.Resolve(kind) == RouteSkip
}

// Fallback returns the route used for unmapped kinds.
func (r *Router) Fallback() Route {
	return r.fallback
}

// DefaultRoutes is the table used when configuration supplies none.
func DefaultRoutes() map[ir.Kind]Route {
	return map[ir.Kind]Route{
		ir.KindIngestPrimary:   "market",
		ir.KindIngestSecondary: "market",
		ir.KindSummarize:       "market",
		ir.KindEvaluate:        "evaluator",
	}
}
