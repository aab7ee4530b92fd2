package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AnthoniusHendriyanto/client-auth-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/client-auth-service/internal/errors"
	"github.com/AnthoniusHendriyanto/client-auth-service/pkg/constant"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PostgresRepository struct {
	db DBTX
}

func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, name, email, password_hash, business_type, roles, enabled, confirmation_token, refresh_token, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row scanner) (*domain.Account, error) {
	var (
		account domain.Account
		roles   []int32
	)
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.BusinessType,
		&roles,
		&account.Enabled,
		&account.ConfirmationToken,
		&account.RefreshToken,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Roles = domain.RolesFromInt32(roles)
	return &account, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where + ` LIMIT 1`
	account, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := r.getOne(ctx, `email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	account, err := r.getOne(ctx, `id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		account.ID, account.Name, account.Email, account.PasswordHash, account.BusinessType,
		account.Roles.Int32s(), account.Enabled, account.ConfirmationToken, account.RefreshToken, account.CreatedAt)
	return mapWriteError(err)
}

// Update persists the admin-editable fields of account.
func (r *PostgresRepository) Update(ctx context.Context, account *domain.Account) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET name = $2, email = $3, business_type = $4, roles = $5, enabled = $6
		WHERE id = $1
	`, account.ID, account.Name, account.Email, account.BusinessType, account.Roles.Int32s(), account.Enabled)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrAccountNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkConfirmed enables the account only while token is still its pending
// confirmation token, so concurrent confirmations succeed at most once.
func (r *PostgresRepository) MarkConfirmed(ctx context.Context, id, token string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET enabled = TRUE, confirmation_token = NULL
		WHERE id = $1 AND confirmation_token = $2
	`, id, token)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	return err
}

// StoreRefreshToken overwrites the account's refresh token; nil clears it.
func (r *PostgresRepository) StoreRefreshToken(ctx context.Context, id string, token *string) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET refresh_token = $2 WHERE id = $1`, id, token)
	return err
}

func (r *PostgresRepository) ExistsWithRole(ctx context.Context, role constant.RoleCode) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE $1 = ANY(roles))`, int32(role)).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepository) ListByRole(ctx context.Context, role constant.RoleCode) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE $1 = ANY(roles)
		ORDER BY created_at
	`, int32(role))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *PostgresRepository) RecordLoginAttempt(ctx context.Context, email, ip string, success bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (id, email, ip_address, attempt_time, successful)
		VALUES (gen_random_uuid(), $1, $2, now(), $3)
	`, email, ip, success)
	return err
}

func (r *PostgresRepository) CountRecentFailedAttempts(ctx context.Context, email, ip string, windowMinutes int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM login_attempts
		WHERE email = $1
		  AND ip_address = $2
		  AND successful = FALSE
		  AND attempt_time > now() - make_interval(mins => $3)
	`, email, ip, windowMinutes).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return autherror.ErrEmailAlreadyInUse
	}
	return err
}
