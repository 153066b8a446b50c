package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/owtlabs/owt/pkg/jwtx"
	"github.com/owtlabs/owt/pkg/slogx"
)

// AuthnMiddleware verifies the access token on protected routes. The token is
// taken from the Authorization header when present, falling back to the named
// cookie (the transport contract places tokens in HttpOnly cookies for
// browser clients).
func AuthnMiddleware(codec *jwtx.Codec, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := extractToken(r, cookieName)
			if raw == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpired) {
					writeBearerError(w, "token expired")
					return
				}
				log.Warn("access token verification failed", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = contextWithIdentity(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RefreshMiddleware verifies the refresh token's signature and expiry under
// the refresh signing context and injects both the subject and the raw token
// into the request context. Possession (the stored-hash match) is the session
// service's job, not ours.
func RefreshMiddleware(codec *jwtx.Codec, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := extractToken(r, cookieName)
			if raw == "" {
				writeBearerError(w, "missing refresh token")
				return
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				if errors.Is(err, jwtx.ErrExpired) {
					writeBearerError(w, "refresh token expired")
					return
				}
				log.Warn("refresh token verification failed", "err", err)
				writeBearerError(w, "refresh token verification failed")
				return
			}

			ctx = contextWithIdentity(ctx, claims)
			ctx = context.WithValue(ctx, CtxKeyRefreshToken, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the request's token, preferring the Authorization
// header over the named cookie.
func BearerToken(r *http.Request, cookieName string) string {
	return extractToken(r, cookieName)
}

// extractToken prefers the Authorization header, then the cookie.
func extractToken(r *http.Request, cookieName string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func contextWithIdentity(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyAccountID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyEmail, c.Email)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
