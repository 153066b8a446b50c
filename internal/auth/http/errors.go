package http

import (
	"errors"
	"net/http"

	"github.com/owtlabs/owt/internal/auth/service"
	"github.com/owtlabs/owt/pkg/httpx"
	"github.com/owtlabs/owt/pkg/jwtx"
	"github.com/owtlabs/owt/pkg/slogx"
)

// writeServiceError maps service-layer failures onto the wire contract.
//
// Credential failures and session denials are both 401 so a caller learns
// nothing beyond "not authorized"; expired and invalid tokens stay
// distinguishable by error code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "duplicate_email", "email is already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
	case errors.Is(err, service.ErrAccessDenied):
		writeError(w, http.StatusUnauthorized, "access_denied", "no active session matches the presented token")
	case errors.Is(err, jwtx.ErrExpired):
		writeError(w, http.StatusUnauthorized, "token_expired", "token is past its expiry")
	case errors.Is(err, jwtx.ErrInvalid):
		writeError(w, http.StatusUnauthorized, "token_invalid", "token failed verification")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such account")
	case errors.Is(err, service.ErrFederationFailure):
		writeError(w, http.StatusBadGateway, "federation_failure", "identity provider request failed")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "")
	}
}

func writeError(w http.ResponseWriter, code int, errCode, desc string) {
	httpx.WriteJSON(w, code, ErrorResponse{Error: errCode, ErrorDescription: desc})
}
