package reqctx

import "context"

type ctxKey string

const (
	keyRID    ctxKey = "rid"
	keyUserID ctxKey = "uid"
)

// WithRID stores the request correlation id used in log lines.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithUserID records the authenticated user for log correlation. Services
// take the acting user as an explicit argument and never read it from here.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, keyUserID, uid)
}

func UserID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserID).(string)
	return v
}
