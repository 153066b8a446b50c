package http

import (
	"net/http"

	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/httpx"
)

// RefreshHandler serves POST /v1/auth/refresh. RefreshMiddleware has already
// checked the token's signature and expiry; possession against the stored
// hash happens in the service.
type RefreshHandler struct {
	SessionService *service.SessionService
	SecureCookies  bool
}

// ServeHTTP godoc
//
//	@Summary		Rotate Session
//	@Description	Trades a valid refresh token for a new token pair, invalidating the presented token.
//	@Description	A token that was already rotated away is denied; so is any token after logout.
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	TokenResponse	"access_token, refresh_token, token_type, expires_in"
//	@Failure		401	{object}	ErrorResponse	"access_denied"
//	@Router			/v1/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ok := httpx.RefreshTokenFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "access_denied", "missing refresh token")
		return
	}

	pair, err := h.SessionService.Refresh(r.Context(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, pair, h.SessionService.RefreshCodec.TTL(), h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newPairResponse(pair))
}
