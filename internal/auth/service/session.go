package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/owtlabs/owt/internal/auth/domain"
	"github.com/owtlabs/owt/internal/auth/store"
	"github.com/owtlabs/owt/pkg/cryptox"
	"github.com/owtlabs/owt/pkg/idx"
	"github.com/owtlabs/owt/pkg/jwtx"
	"github.com/owtlabs/owt/pkg/slogx"
)

// SessionService owns the credential lifecycle: signup, login, access token
// validation, refresh rotation and logout. Each account holds at most one
// active refresh token; a new login replaces it, a refresh rotates it, a
// logout clears it.
type SessionService struct {
	Store        store.Store
	AccessCodec  *jwtx.Codec
	RefreshCodec *jwtx.Codec
}

// Signup registers a new password account and starts a session for it.
//
// Emails are normalized to lowercase before storage so lookups are
// case-insensitive. A taken email surfaces as ErrDuplicateEmail.
func (s *SessionService) Signup(ctx context.Context, email, password, displayName string) (*domain.TokenPair, domain.Profile, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email = normalizeEmail(email)

	passwordHash, err := cryptox.HashSecret(password)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: &passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	pair, refreshHash, err := s.issuePair(account.ID, account.Email, now)
	if err != nil {
		return nil, domain.Profile{}, err
	}
	account.RefreshTokenHash = &refreshHash

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			l.Info("signup rejected, email already registered")
			return nil, domain.Profile{}, ErrDuplicateEmail
		}
		return nil, domain.Profile{}, err
	}

	l.Info("account created", slog.String("account_id", account.ID))
	return pair, account.Profile(), nil
}

// Login verifies the password and replaces any existing session with a fresh
// token pair.
//
// Unknown emails, federation-only accounts and wrong passwords all collapse
// into ErrInvalidCredentials so responses cannot be used to enumerate
// registered addresses.
func (s *SessionService) Login(ctx context.Context, email, password string) (*domain.TokenPair, domain.Profile, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.Profile{}, ErrInvalidCredentials
		}
		return nil, domain.Profile{}, err
	}

	// Accounts created purely via federation have no password to check.
	if account.PasswordHash == nil || !cryptox.VerifySecret(password, *account.PasswordHash) {
		l.Info("login rejected", slog.String("account_id", account.ID))
		return nil, domain.Profile{}, ErrInvalidCredentials
	}

	pair, refreshHash, err := s.issuePair(account.ID, account.Email, now)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	if err := s.Store.Accounts().UpdateRefreshTokenHash(ctx, account.ID, refreshHash); err != nil {
		return nil, domain.Profile{}, err
	}

	l.Info("session started", slog.String("account_id", account.ID))
	return pair, account.Profile(), nil
}

// Validate checks an access token and returns the profile of the account it
// was issued for. Expired tokens surface as jwtx.ErrExpired, everything else
// wrong with the token as jwtx.ErrInvalid, so transports can report the two
// cases distinctly.
func (s *SessionService) Validate(ctx context.Context, accessToken string) (domain.Profile, error) {
	claims, err := s.AccessCodec.Verify(accessToken)
	if err != nil {
		return domain.Profile{}, err
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Token outlived its account.
			return domain.Profile{}, ErrAccessDenied
		}
		return domain.Profile{}, err
	}

	return account.Profile(), nil
}

// Refresh rotates the session: it trades a valid refresh token for a new
// pair and invalidates the presented token in the same step.
//
// Every failure mode (bad signature, expiry, no active session, a token that
// was already rotated away) maps to ErrAccessDenied. The swap in the store is
// a compare-and-swap, so of two racing refreshes exactly one wins and the
// other is denied.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	claims, err := s.RefreshCodec.Verify(refreshToken)
	if err != nil {
		return nil, ErrAccessDenied
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}

	if account.Session() == domain.NoSession || !cryptox.VerifySecret(refreshToken, *account.RefreshTokenHash) {
		l.Info("refresh rejected, token does not match active session", slog.String("account_id", account.ID))
		return nil, ErrAccessDenied
	}

	pair, newHash, err := s.issuePair(account.ID, account.Email, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.Accounts().SwapRefreshTokenHash(ctx, account.ID, *account.RefreshTokenHash, newHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A concurrent rotation or logout got there first.
			l.Info("refresh lost rotation race", slog.String("account_id", account.ID))
			return nil, ErrAccessDenied
		}
		return nil, err
	}

	l.Info("session rotated", slog.String("account_id", account.ID))
	return pair, nil
}

// Logout clears the account's active session. It is idempotent: logging out
// twice, or with no session at all, succeeds.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	if err := s.Store.Accounts().ClearRefreshTokenHash(ctx, accountID); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("session cleared", slog.String("account_id", accountID))
	return nil
}

// issuePair signs an access and a refresh token for the subject and returns
// the pair alongside the salted hash of the refresh token. Only the hash is
// ever persisted; the raw refresh token exists solely in the response.
func (s *SessionService) issuePair(subject, email string, now time.Time) (*domain.TokenPair, string, error) {
	accessToken, err := s.AccessCodec.Sign(subject, email, now)
	if err != nil {
		return nil, "", err
	}

	refreshToken, err := s.RefreshCodec.Sign(subject, email, now)
	if err != nil {
		return nil, "", err
	}

	refreshHash, err := cryptox.HashSecret(refreshToken)
	if err != nil {
		return nil, "", err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessCodec.TTL(),
	}, refreshHash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
