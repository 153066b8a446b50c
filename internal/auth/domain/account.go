package domain

import "time"

// Account is the identity record. One row per user; never deleted by the
// session core (the users resource may delete it).
type Account struct {
	ID          string
	Email       string // unique, stored lowercased
	DisplayName string
	AvatarURL   *string // set by federation when the provider supplies one

	// PasswordHash is nil for accounts created purely via federation.
	PasswordHash *string

	// RefreshTokenHash anchors the single active session: it holds the salted
	// hash of the currently valid refresh token, or nil when there is no
	// session to rotate or revoke.
	RefreshTokenHash *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionState is the explicit form of the session state machine implied by
// RefreshTokenHash.
type SessionState int

const (
	// NoSession means there is nothing to rotate or revoke.
	NoSession SessionState = iota
	// ActiveSession means exactly one refresh token is currently accepted.
	ActiveSession
)

// Session reports which state the account's refresh slot is in.
func (a Account) Session() SessionState {
	if a.RefreshTokenHash == nil || *a.RefreshTokenHash == "" {
		return NoSession
	}
	return ActiveSession
}

// Profile is the public projection of an Account. It is what validate and
// the users resource return; hashes never leave the store layer.
type Profile struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Profile projects the public fields of the account.
func (a Account) Profile() Profile {
	return Profile{
		ID:          a.ID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
	}
}

// LinkedIdentity binds one external provider identity to an account. Created
// exactly once at first federated login, never mutated afterwards.
type LinkedIdentity struct {
	ID         string
	AccountID  string
	Provider   string // e.g. "naver"
	ProviderID string // the provider's stable subject identifier
	CreatedAt  time.Time
}

// ExternalIdentity is the normalized profile handed over by an OAuth
// provider after a verified callback. Providers must never emit a partially
// populated value; Provider, ProviderID and Email are required.
type ExternalIdentity struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   *string
}
