package sqlite

import (
	"context"

	"github.com/owtlabs/owt/internal/auth/domain"
)

type linkedIdentitiesRepo struct {
	db dbtx
}

func (r *linkedIdentitiesRepo) GetByProviderSubject(
	ctx context.Context,
	provider, providerID string,
) (domain.LinkedIdentity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, account_id, provider, provider_id, created_at
		 FROM linked_identities WHERE provider = ? AND provider_id = ?`,
		provider, providerID)

	var li domain.LinkedIdentity
	err := row.Scan(&li.ID, &li.AccountID, &li.Provider, &li.ProviderID, &li.CreatedAt)
	if err != nil {
		return domain.LinkedIdentity{}, mapNotFound(err)
	}
	return li, nil
}

func (r *linkedIdentitiesRepo) CreateLinkedIdentity(ctx context.Context, li domain.LinkedIdentity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO linked_identities (id, account_id, provider, provider_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		li.ID, li.AccountID, li.Provider, li.ProviderID, nowUTC())
	return mapConstraint(err)
}
