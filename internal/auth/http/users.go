package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/httpx"
)

// UsersHandler serves the /v1/users resource. Reads are open to any
// authenticated account; writes are restricted to the account itself.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleList godoc
//
//	@Summary		List Accounts
//	@Description	Returns the public profiles of all accounts, newest first.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		domain.Profile
//	@Failure		401	{object}	ErrorResponse
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profiles)
}

// HandleGet godoc
//
//	@Summary		Get Account
//	@Description	Returns one account's public profile. The literal id "me" resolves to the caller.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"account id or me"
//	@Success		200	{object}	domain.Profile
//	@Failure		404	{object}	ErrorResponse
//	@Router			/v1/users/{id} [get].
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.UserService.GetUser(r.Context(), h.targetID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// HandleUpdate godoc
//
//	@Summary		Update Profile
//	@Description	Changes the caller's display name and avatar. Accounts can only update themselves.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"account id or me"
//	@Param			body	body		updateProfileRequest	true	"display_name, avatar_url"
//	@Success		200		{object}	domain.Profile
//	@Failure		403		{object}	ErrorResponse	"not the caller's account"
//	@Router			/v1/users/{id} [patch].
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "display_name is required")
		return
	}

	profile, err := h.UserService.UpdateProfile(r.Context(), targetID, req.DisplayName, req.AvatarURL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

// HandleDelete godoc
//
//	@Summary		Delete Account
//	@Description	Removes the caller's account, its linked identities and its active session.
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			id	path	string	true	"account id or me"
//	@Success		204	"account deleted"
//	@Failure		403	{object}	ErrorResponse	"not the caller's account"
//	@Router			/v1/users/{id} [delete].
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	targetID, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	if err := h.UserService.DeleteUser(r.Context(), targetID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// targetID resolves the path id, letting "me" stand for the caller.
func (h *UsersHandler) targetID(r *http.Request) string {
	id := r.PathValue("id")
	if id == "me" {
		if callerID, ok := httpx.AccountIDFromCtx(r.Context()); ok {
			return callerID
		}
	}
	return id
}

// requireSelf rejects writes aimed at anyone but the caller.
func (h *UsersHandler) requireSelf(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, ok := httpx.AccountIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "token_invalid", "missing bearer token")
		return "", false
	}

	targetID := h.targetID(r)
	if targetID != callerID {
		writeError(w, http.StatusForbidden, "forbidden", "accounts can only modify themselves")
		return "", false
	}
	return targetID, true
}
