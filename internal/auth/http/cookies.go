package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/owtlabs/owt/internal/auth/domain"
)

// Cookie names for browser clients. Tokens also travel in the Authorization
// header for API clients; the cookies are the HttpOnly fallback.
const (
	AccessTokenCookie  = "owt_access_token"
	RefreshTokenCookie = "owt_refresh_token"

	// Transient cookies for the OAuth round trip.
	oauthStateCookie    = "owt_oauth_state"
	oauthRedirectCookie = "owt_oauth_redirect"

	oauthCookieTTL = 10 * time.Minute
)

// setAuthCookies stores the token pair in HttpOnly cookies. SameSite is
// Strict: nothing cross-site ever needs to send them. Each cookie lives
// exactly as long as its token: the pair carries the access TTL, the
// caller supplies the configured refresh TTL.
func setAuthCookies(w http.ResponseWriter, pair *domain.TokenPair, refreshTTL time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(pair.ExpiresIn.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// setOAuthCookies parks the anti-forgery state and the post-login redirect
// for the duration of the provider round trip. SameSite is Lax because the
// callback arrives as a top-level navigation from the provider.
func setOAuthCookies(w http.ResponseWriter, state, redirect string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	if redirect != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     oauthRedirectCookie,
			Value:    redirect,
			Path:     "/",
			MaxAge:   int(oauthCookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func clearOAuthCookies(w http.ResponseWriter, secure bool) {
	for _, name := range []string{oauthStateCookie, oauthRedirectCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// resolveRedirect returns the requested post-login destination if it sits
// under one of the allowed origins, or the default destination otherwise.
// The match stops at the origin boundary: a destination is either the
// origin itself or a path below it, so a lookalike host that merely
// extends the origin string ("https://app.example.evil.com") never
// qualifies.
func resolveRedirect(requested string, allowed []string, fallback string) string {
	if requested == "" {
		return fallback
	}
	for _, origin := range allowed {
		origin = strings.TrimSuffix(origin, "/")
		if origin == "" {
			continue
		}
		if requested == origin || strings.HasPrefix(requested, origin+"/") {
			return requested
		}
	}
	return fallback
}
