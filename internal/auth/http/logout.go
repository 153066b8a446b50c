package http

import (
	"net/http"

	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/httpx"
)

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	SessionService *service.SessionService
	SecureCookies  bool
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Revokes the active session and clears the auth cookies. Idempotent.
//	@Description	Outstanding access tokens keep validating until they expire on their own.
//	@Tags			Sessions
//	@Security		BearerAuth
//	@Success		204	"session cleared"
//	@Failure		401	{object}	ErrorResponse	"missing or invalid access token"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	accountID, ok := httpx.AccountIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "token_invalid", "missing bearer token")
		return
	}

	if err := h.SessionService.Logout(r.Context(), accountID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	clearAuthCookies(w, h.SecureCookies)
	w.WriteHeader(http.StatusNoContent)
}
