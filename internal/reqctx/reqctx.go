package reqctx

import "context"

type ctxKey string

const keyRequestID ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)

	return v, ok && v != ""
}
