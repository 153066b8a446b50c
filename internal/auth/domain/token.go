package domain

import "time"

// TokenPair is what a successful signup, login, refresh, or federated login
// returns: the short-lived access token and the single-use refresh token.
// Both are opaque signed strings to the client; neither is persisted as-is.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}
