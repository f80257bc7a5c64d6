package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/Gatekeeper/internal/domain/account"
)

var _ account.Store = (*AccountRepo)(nil)

type AccountRepo struct {
	db *DB
}

func NewAccountRepo(db *DB) *AccountRepo { return &AccountRepo{db: db} }

const (
	constraintAccountsEmail    = "accounts_email_key"
	constraintAccountsUsername = "accounts_username_key"
)

const (
	accountColumns = `id, email, username, password_hash, is_verified, created_at, updated_at`

	qAccountInsert = `
INSERT INTO accounts (id, email, username, password_hash, is_verified, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
RETURNING created_at, updated_at;`

	qAccountByID = `
SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1;`

	qAccountByEmail = `
SELECT ` + accountColumns + `
FROM accounts
WHERE email = $1;`

	qAccountByUsername = `
SELECT ` + accountColumns + `
FROM accounts
WHERE username = $1;`

	qAccountUpdate = `
UPDATE accounts
SET email         = $2,
    username      = $3,
    password_hash = $4,
    is_verified   = accounts.is_verified OR $5,
    updated_at    = NOW()
WHERE id = $1
RETURNING is_verified, updated_at;`
)

func (r *AccountRepo) Create(ctx context.Context, a *account.Account) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	err := eq.QueryRow(ctx, qAccountInsert, a.ID, a.Email, a.Username, a.PasswordHash, a.IsVerified, a.CreatedAt).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("account insert: %w", mapWriteErr(err))
	}
	return nil
}

func (r *AccountRepo) Save(ctx context.Context, a *account.Account) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	err := eq.QueryRow(ctx, qAccountUpdate, a.ID, a.Email, a.Username, a.PasswordHash, a.IsVerified).
		Scan(&a.IsVerified, &a.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return account.ErrNotFound
		}
		return fmt.Errorf("account update: %w", mapWriteErr(err))
	}
	return nil
}

func (r *AccountRepo) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.findOne(ctx, qAccountByID, id)
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return r.findOne(ctx, qAccountByEmail, account.NormalizeEmail(email))
}

func (r *AccountRepo) FindByUsername(ctx context.Context, username string) (*account.Account, error) {
	return r.findOne(ctx, qAccountByUsername, username)
}

func (r *AccountRepo) findOne(ctx context.Context, q string, arg any) (*account.Account, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var a account.Account
	if err := scanAccount(r.db.execQueryer(ctx).QueryRow(ctx, q, arg), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccount(row pgx.Row, out *account.Account) error {
	if err := row.Scan(&out.ID, &out.Email, &out.Username, &out.PasswordHash, &out.IsVerified, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if isNoRows(err) {
			return account.ErrNotFound
		}
		return fmt.Errorf("scan account: %w", err)
	}
	return nil
}

func mapWriteErr(err error) error {
	if name, ok := constraintOf(err); ok {
		switch name {
		case constraintAccountsEmail:
			return fmt.Errorf("%w: %w", account.ErrEmailTaken, ErrConflict)
		case constraintAccountsUsername:
			return fmt.Errorf("%w: %w", account.ErrUsernameTaken, ErrConflict)
		}
		return ErrConflict
	}
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}
