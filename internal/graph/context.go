package graph

import "context"

type ctxKey int

const tokenKey ctxKey = iota

// WithToken attaches the raw bearer token of the caller.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}
