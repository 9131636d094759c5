package interceptor

import "context"

type retryMarkerKey struct{}

// WithRetryMarker flags the request as already retried after a refresh.
func WithRetryMarker(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryMarkerKey{}, true)
}

func HasRetryMarker(ctx context.Context) bool {
	marked, _ := ctx.Value(retryMarkerKey{}).(bool)
	return marked
}
