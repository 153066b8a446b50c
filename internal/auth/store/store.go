package store

import (
	"context"
	"errors"

	"github.com/owtlabs/owt/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Accounts() Accounts
	LinkedIdentities() LinkedIdentities

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., creating a
	// federated account together with its linked identity).
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks up by the lowercased email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdateRefreshTokenHash unconditionally replaces the stored refresh-token
	// hash (login and federated login overwrite whatever session existed).
	UpdateRefreshTokenHash(ctx context.Context, accountID, hash string) error

	// SwapRefreshTokenHash replaces the stored hash only if it still equals
	// oldHash. Returns ErrNotFound when the stored value changed underneath
	// us (a concurrent rotation won) or the account is gone. This is the
	// compare-and-swap that keeps rotation single-use under races.
	SwapRefreshTokenHash(ctx context.Context, accountID, oldHash, newHash string) error

	// ClearRefreshTokenHash drops the active session. A missing account or an
	// already-cleared hash is not an error (logout is idempotent).
	ClearRefreshTokenHash(ctx context.Context, accountID string) error

	// UpdateProfile mutates display name and avatar and bumps updated_at.
	UpdateProfile(ctx context.Context, accountID, displayName string, avatarURL *string) error

	// DeleteAccount cascades to linked_identities (per schema).
	DeleteAccount(ctx context.Context, accountID string) error

	// ListAccounts returns all accounts ordered by creation (newest first).
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

type LinkedIdentities interface {
	// GetByProviderSubject fetches the binding for one external identity.
	GetByProviderSubject(ctx context.Context, provider, providerID string) (domain.LinkedIdentity, error)

	// CreateLinkedIdentity inserts a new binding. Returns ErrAlreadyExists
	// when (provider, provider_id) is already bound to some account.
	CreateLinkedIdentity(ctx context.Context, li domain.LinkedIdentity) error
}
