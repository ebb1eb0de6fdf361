package goBearer

import "context"

type requestIDContextKey struct{}
type skipAuthContextKey struct{}
type extraHeadersContextKey struct{}

// WithRequestID attaches a caller-chosen request ID to ctx. The transport
// sends it as X-Request-ID and stamps it into audit events; without one a
// random ID is generated per attempt.
//
//	Docs: docs/transport.md
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// WithoutAuth marks ctx so the request skips credential handling entirely:
// no expiry check, no refresh, no Authorization header. Useful for public
// endpoints served by the same API host.
//
//	Docs: docs/transport.md
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthContextKey{}, true)
}

// WithHeader attaches an extra header pair to ctx for a single request.
// Repeated calls accumulate; later values for the same key are appended,
// not replaced.
func WithHeader(ctx context.Context, key, value string) context.Context {
	pairs, _ := ctx.Value(extraHeadersContextKey{}).([][2]string)
	next := make([][2]string, 0, len(pairs)+1)
	next = append(next, pairs...)
	next = append(next, [2]string{key, value})
	return context.WithValue(ctx, extraHeadersContextKey{}, next)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

func skipAuthFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	skip, _ := ctx.Value(skipAuthContextKey{}).(bool)
	return skip
}

func extraHeadersFromContext(ctx context.Context) [][2]string {
	if ctx == nil {
		return nil
	}

	pairs, _ := ctx.Value(extraHeadersContextKey{}).([][2]string)
	return pairs
}
