package reqctx

import "context"

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyUserID    ctxKey = "user_id"
)

// WithRequestID stores the correlation id used in logs.
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRequestID, rid)
}

// RequestID returns the correlation id if present.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(keyRequestID).(string)
	return v
}

// WithUserID stores the acting user id.
func WithUserID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, keyUserID, id)
}

// UserID returns the acting user id, or 0.
func UserID(ctx context.Context) uint64 {
	v, _ := ctx.Value(keyUserID).(uint64)
	return v
}
