package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants for the two signing contexts.
// Short-lived access tokens, longer-lived refresh tokens; both can be
// overridden per-service via configuration.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	// ErrNoSecret reports a codec constructed without a signing secret.
	// This is a startup-time configuration failure, never a per-request one.
	ErrNoSecret = errors.New("jwtx: signing secret is not set")

	// ErrInvalid reports a malformed token, a signature mismatch, or a token
	// missing required claims. Tokens signed under a different context's
	// secret land here as well.
	ErrInvalid = errors.New("jwtx: invalid token")

	// ErrExpired reports a well-formed token past its expiry.
	ErrExpired = errors.New("jwtx: token expired")
)

// Claims is the decoded content of a verified token. Access and refresh
// tokens share this shape but are signed under independent secrets and are
// never interchangeable.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the account the token was issued for.
	Email string `json:"email,omitempty"`
}

// Codec signs and verifies compact expiring tokens for one signing context.
// Build one per context (access, refresh), each with its own secret and TTL.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewCodec builds a codec for one signing context. An empty secret is a fatal
// configuration error surfaced at construction, not at request time.
func NewCodec(secret string, ttl time.Duration, issuer string) (*Codec, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("jwtx: non-positive ttl %v", ttl)
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
	}, nil
}

// TTL returns the lifetime tokens signed by this codec carry.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Sign issues a token for the given subject and email, expiring TTL after
// now. Signing is pure: no I/O, no shared state.
func (c *Codec) Sign(subject, email string, now time.Time) (string, error) {
	if subject == "" || email == "" {
		return "", fmt.Errorf("jwtx: subject and email are required: %w", ErrInvalid)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        newJTI(),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify parses and validates a token signed by this codec.
//
// It distinguishes two failure modes: ErrExpired for a stale but otherwise
// well-signed token, ErrInvalid for everything else (bad signature, malformed
// structure, missing subject or email, wrong issuer, wrong context).
func (c *Codec) Verify(token string) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return Claims{}, fmt.Errorf("%w: missing required claims", ErrInvalid)
	}

	return claims, nil
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
