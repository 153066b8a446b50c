package sqlite

import (
	"context"
	"database/sql"

	"github.com/owtlabs/owt/internal/auth/domain"
	"github.com/owtlabs/owt/internal/auth/store"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, display_name, avatar_url, password_hash, refresh_token_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(dest ...any) error }) (domain.Account, error) {
	var (
		a           domain.Account
		avatarURL   sql.NullString
		password    sql.NullString
		refreshHash sql.NullString
	)
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&avatarURL,
		&password,
		&refreshHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	a.AvatarURL = mapNullStringPtr(avatarURL)
	a.PasswordHash = mapNullStringPtr(password)
	a.RefreshTokenHash = mapNullStringPtr(refreshHash)
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := nowUTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, display_name, avatar_url, password_hash, refresh_token_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.Email,
		a.DisplayName,
		mapOptionalString(a.AvatarURL),
		mapOptionalString(a.PasswordHash),
		mapOptionalString(a.RefreshTokenHash),
		now,
		now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdateRefreshTokenHash(ctx context.Context, accountID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET refresh_token_hash = ?, updated_at = ? WHERE id = ?`,
		hash, nowUTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) SwapRefreshTokenHash(ctx context.Context, accountID, oldHash, newHash string) error {
	// The WHERE clause is the compare half of the compare-and-swap: if a
	// concurrent rotation already replaced the hash, zero rows match and the
	// caller sees ErrNotFound.
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET refresh_token_hash = ?, updated_at = ?
		 WHERE id = ? AND refresh_token_hash = ?`,
		newHash, nowUTC(), accountID, oldHash)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) ClearRefreshTokenHash(ctx context.Context, accountID string) error {
	// Intentionally no affected-row check: clearing an absent session or a
	// missing account still counts as logged out.
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET refresh_token_hash = NULL, updated_at = ? WHERE id = ?`,
		nowUTC(), accountID)
	return err
}

func (r *accountsRepo) UpdateProfile(ctx context.Context, accountID, displayName string, avatarURL *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET display_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		displayName, mapOptionalString(avatarURL), nowUTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) DeleteAccount(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
