// Package context carries request-scoped correlation identifiers
// (request id, actor) through context.Context so the logger and tracer
// can attach them without threading extra parameters through every call.
package context

import "context"

type contextKey int

const (
	requestIDKey contextKey = iota
	orgIDKey
	actorTypeKey
	actorIDKey
)

// WithRequestID attaches the inbound request's correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithOrgID attaches an organization/tenant identifier. The single
// cooperative this service runs for has no multi-tenant concept, so
// callers generally leave this unset; it stays available for a future
// consumer, logger.WithContext included.
func WithOrgID(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, orgIDKey, orgID)
}

// OrgIDFromContext returns the org id set by WithOrgID, or "".
func OrgIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(orgIDKey).(string)
	return v
}

// WithActor attaches the authenticated actor (agent/admin/super_admin) and
// its user id, as decoded from the request's JWT.
func WithActor(ctx context.Context, actorType, actorID string) context.Context {
	ctx = context.WithValue(ctx, actorTypeKey, actorType)
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorFromContext returns the actor type and id set by WithActor.
func ActorFromContext(ctx context.Context) (actorType, actorID string) {
	actorType, _ = ctx.Value(actorTypeKey).(string)
	actorID, _ = ctx.Value(actorIDKey).(string)
	return actorType, actorID
}
