package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/httpx"
)

const minPasswordLength = 8

// SignupHandler serves POST /v1/auth/signup.
type SignupHandler struct {
	SessionService *service.SessionService
	SecureCookies  bool
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// ServeHTTP godoc
//
//	@Summary		Register Account
//	@Description	Creates a password account and starts a session. Returns the token pair and the new profile.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		signupRequest	true	"email, password, display_name"
//	@Success		201		{object}	TokenResponse	"access_token, refresh_token, token_type, expires_in, profile"
//	@Failure		400		{object}	ErrorResponse	"error, error_description"
//	@Failure		409		{object}	ErrorResponse	"email already registered"
//	@Router			/v1/auth/signup [post].
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid_request", "a valid email is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "password must be at least 8 characters")
		return
	}
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "display_name is required")
		return
	}

	pair, profile, err := h.SessionService.Signup(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	setAuthCookies(w, pair, h.SessionService.RefreshCodec.TTL(), h.SecureCookies)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, newTokenResponse(pair, profile))
}
