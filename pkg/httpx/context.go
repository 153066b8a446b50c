package httpx

import "context"

type ctxKey string

const (
	CtxKeyAccountID    ctxKey = "account_id"
	CtxKeyEmail        ctxKey = "email"
	CtxKeyClaims       ctxKey = "claims" // full jwtx.Claims if needed
	CtxKeyRefreshToken ctxKey = "refresh_token"
)

// AccountIDFromCtx returns the authenticated account id injected by
// AuthnMiddleware or RefreshMiddleware.
func AccountIDFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyAccountID).(string)
	return v, ok && v != ""
}

// RefreshTokenFromCtx returns the raw refresh token injected by
// RefreshMiddleware.
func RefreshTokenFromCtx(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyRefreshToken).(string)
	return v, ok && v != ""
}
