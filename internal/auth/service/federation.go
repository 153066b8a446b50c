package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/owtlabs/owt/internal/auth/domain"
	"github.com/owtlabs/owt/internal/auth/store"
	"github.com/owtlabs/owt/pkg/idx"
	"github.com/owtlabs/owt/pkg/slogx"
)

// FederatedLogin resolves an external identity to a local account and starts
// a session for it, creating the account on first contact.
//
// The (provider, provider_id) pair is the only linking key. An external email
// that happens to collide with an existing password account does NOT attach
// to it; the provider's say-so about an email address is not proof of
// ownership, so the collision surfaces as ErrDuplicateEmail instead.
func (s *SessionService) FederatedLogin(ctx context.Context, ext domain.ExternalIdentity) (*domain.TokenPair, domain.Profile, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if ext.Provider == "" || ext.ProviderID == "" || ext.Email == "" {
		return nil, domain.Profile{}, ErrFederationFailure
	}
	ext.Email = normalizeEmail(ext.Email)

	account, err := s.resolveFederatedAccount(ctx, ext, now)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	pair, refreshHash, err := s.issuePair(account.ID, account.Email, now)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	if err := s.Store.Accounts().UpdateRefreshTokenHash(ctx, account.ID, refreshHash); err != nil {
		return nil, domain.Profile{}, err
	}

	l.Info("federated session started",
		slog.String("account_id", account.ID),
		slog.String("provider", ext.Provider),
	)
	return pair, account.Profile(), nil
}

// resolveFederatedAccount finds the account bound to the external identity,
// creating account and binding together on first login. Creation is atomic;
// losing a concurrent first-login race falls back to the winner's binding.
func (s *SessionService) resolveFederatedAccount(ctx context.Context, ext domain.ExternalIdentity, now time.Time) (domain.Account, error) {
	li, err := s.Store.LinkedIdentities().GetByProviderSubject(ctx, ext.Provider, ext.ProviderID)
	if err == nil {
		return s.Store.Accounts().GetAccountByID(ctx, li.AccountID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:          idx.New().String(),
		Email:       ext.Email,
		DisplayName: ext.DisplayName,
		AvatarURL:   ext.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
			return err
		}
		return tx.LinkedIdentities().CreateLinkedIdentity(ctx, domain.LinkedIdentity{
			ID:         idx.New().String(),
			AccountID:  account.ID,
			Provider:   ext.Provider,
			ProviderID: ext.ProviderID,
			CreatedAt:  now,
		})
	})
	if err == nil {
		slogx.FromContext(ctx).Info("federated account created",
			slog.String("account_id", account.ID),
			slog.String("provider", ext.Provider),
		)
		return account, nil
	}
	if !errors.Is(err, store.ErrAlreadyExists) {
		return domain.Account{}, err
	}

	// Either a concurrent first login created the binding, or the email
	// belongs to an unrelated password account.
	li, lookupErr := s.Store.LinkedIdentities().GetByProviderSubject(ctx, ext.Provider, ext.ProviderID)
	if lookupErr == nil {
		return s.Store.Accounts().GetAccountByID(ctx, li.AccountID)
	}
	if errors.Is(lookupErr, store.ErrNotFound) {
		return domain.Account{}, ErrDuplicateEmail
	}
	return domain.Account{}, lookupErr
}
