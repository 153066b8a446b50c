package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/owtlabs/owt/internal/auth/domain"
	"github.com/owtlabs/owt/internal/auth/store"
	"github.com/owtlabs/owt/pkg/slogx"
)

// UserService exposes the account resource around the session core: profile
// reads, profile updates and account deletion.
type UserService struct {
	Store store.Store
}

// GetUser returns the public profile for an account.
func (s *UserService) GetUser(ctx context.Context, accountID string) (domain.Profile, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, err
	}
	return account.Profile(), nil
}

// ListUsers returns the public profiles of all accounts, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	accounts, err := s.Store.Accounts().ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(accounts))
	for _, a := range accounts {
		profiles = append(profiles, a.Profile())
	}
	return profiles, nil
}

// UpdateProfile changes the display name and avatar of an account and
// returns the updated profile.
func (s *UserService) UpdateProfile(ctx context.Context, accountID, displayName string, avatarURL *string) (domain.Profile, error) {
	err := s.Store.Accounts().UpdateProfile(ctx, accountID, displayName, avatarURL)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, err
	}
	return s.GetUser(ctx, accountID)
}

// DeleteUser removes an account. Linked identities go with it; any active
// session dies because its subject no longer resolves.
func (s *UserService) DeleteUser(ctx context.Context, accountID string) error {
	err := s.Store.Accounts().DeleteAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	slogx.FromContext(ctx).Info("account deleted", slog.String("account_id", accountID))
	return nil
}
