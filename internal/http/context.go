package http

import (
	"context"

	"github.com/example/study-planner/internal/application"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	resourceIDContextKey contextKey = "resource_id"
)

// ContextWithPrincipal stores the owner taken from the owner header. Every
// service call made by a handler is scoped to this owner.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext returns the owner set by RequireOwner. Handlers pass
// the zero Principal through unchanged; services reject it as unauthorized.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithResourceID stores the trailing path segment of /planner-items/{id},
// /exams/{id}, /events/{id} or /courses/{id}.
func ContextWithResourceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, resourceIDContextKey, id)
}

// ResourceIDFromContext returns the id the router cut from the path. Update
// and delete handlers answer 400 when it is missing.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resourceIDContextKey).(string)
	return id, ok && id != ""
}
