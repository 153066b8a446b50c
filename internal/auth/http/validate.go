package http

import (
	"net/http"

	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/httpx"
)

// ValidateHandler serves GET /v1/auth/validate.
type ValidateHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP godoc
//
//	@Summary		Validate Access Token
//	@Description	Checks the presented access token and returns the profile it was issued for.
//	@Description	Expired tokens report token_expired; everything else wrong reports token_invalid.
//	@Tags			Sessions
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	domain.Profile	"id, email, display_name, avatar_url"
//	@Failure		401	{object}	ErrorResponse	"token_expired or token_invalid"
//	@Router			/v1/auth/validate [get].
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := httpx.BearerToken(r, AccessTokenCookie)
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "token_invalid", "missing bearer token")
		return
	}

	profile, err := h.SessionService.Validate(r.Context(), raw)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, profile)
}
