// Package kit holds small transport helpers shared by docgate services.
package kit

import "context"

// Endpoint is a transport-agnostic handler: decoded request in, response out.
type Endpoint func(ctx context.Context, req any) (any, error)

type contextKey string

const (
	// TransportKey marks which transport invoked an endpoint ("http", "mcp").
	TransportKey contextKey = "kit_transport"
	// RequestIDKey carries the per-request correlation id.
	RequestIDKey contextKey = "kit_request_id"
)

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}
