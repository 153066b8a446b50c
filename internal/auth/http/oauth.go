package http

import (
	"net/http"

	"github.com/owtlabs/owt/internal/auth/provider"
	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/cryptox"
	"github.com/owtlabs/owt/pkg/slogx"
)

// OAuthBeginHandler serves GET /v1/auth/{provider}: it parks the anti-forgery
// state and the requested post-login destination in cookies and bounces the
// browser to the provider's authorization page.
type OAuthBeginHandler struct {
	Providers        *provider.Registry
	SecureCookies    bool
	AllowedRedirects []string
}

// ServeHTTP godoc
//
//	@Summary		Begin Federated Login
//	@Description	Redirects the browser to the named provider's authorization page.
//	@Description	An optional redirect_url query parameter picks the post-login destination; it must sit under an allowed origin.
//	@Tags			Federation
//	@Param			provider		path	string	true	"provider name, e.g. naver"
//	@Param			redirect_url	query	string	false	"post-login destination"
//	@Success		302	"redirect to the provider"
//	@Failure		404	{object}	ErrorResponse	"unknown provider"
//	@Router			/v1/auth/{provider} [get].
func (h *OAuthBeginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown provider")
		return
	}

	state, err := cryptox.GenerateState(cryptox.StateSize128)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	redirect := resolveRedirect(r.URL.Query().Get("redirect_url"), h.AllowedRedirects, "")
	setOAuthCookies(w, state, redirect, h.SecureCookies)

	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}

// OAuthCallbackHandler serves GET /v1/auth/{provider}/callback: it checks the
// state, trades the code for an upstream profile, logs the account in and
// sends the browser back to the application.
type OAuthCallbackHandler struct {
	Providers        *provider.Registry
	SessionService   *service.SessionService
	SecureCookies    bool
	AllowedRedirects []string
}

// ServeHTTP godoc
//
//	@Summary		Federated Login Callback
//	@Description	Completes the provider round trip: verifies the anti-forgery state, exchanges the code,
//	@Description	creates the account on first contact and starts a session. On success the browser is
//	@Description	redirected to the destination chosen when the flow began.
//	@Tags			Federation
//	@Param			provider	path	string	true	"provider name, e.g. naver"
//	@Param			code		query	string	true	"authorization code"
//	@Param			state		query	string	true	"anti-forgery state"
//	@Success		302	"redirect back to the application with auth cookies set"
//	@Failure		401	{object}	ErrorResponse	"state mismatch"
//	@Failure		409	{object}	ErrorResponse	"provider email belongs to an existing password account"
//	@Failure		502	{object}	ErrorResponse	"provider request failed"
//	@Router			/v1/auth/{provider}/callback [get].
func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown provider")
		return
	}

	// The round-trip cookies are spent either way; headers must be set
	// before any response is written.
	clearOAuthCookies(w, h.SecureCookies)

	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || stateCookie.Value != state {
		log.Warn("federated callback state mismatch", "provider", p.Name())
		writeError(w, http.StatusUnauthorized, "access_denied", "state mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadGateway, "federation_failure", "provider returned no code")
		return
	}

	identity, err := p.Exchange(r.Context(), code)
	if err != nil {
		log.Warn("federated exchange failed", "provider", p.Name(), "err", err)
		writeError(w, http.StatusBadGateway, "federation_failure", "identity provider request failed")
		return
	}

	pair, _, err := h.SessionService.FederatedLogin(r.Context(), identity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, pair, h.SessionService.RefreshCodec.TTL(), h.SecureCookies)

	redirect := ""
	if c, err := r.Cookie(oauthRedirectCookie); err == nil {
		redirect = c.Value
	}
	redirect = resolveRedirect(redirect, h.AllowedRedirects, h.defaultRedirect())

	http.Redirect(w, r, redirect, http.StatusFound)
}

func (h *OAuthCallbackHandler) defaultRedirect() string {
	if len(h.AllowedRedirects) > 0 {
		return h.AllowedRedirects[0]
	}
	return "/"
}
