package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Gatekeeper/internal/domain/account"
)

var accountCols = []string{"id", "email", "username", "password_hash", "is_verified", "created_at", "updated_at"}

func newMockDB(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, NewFromPool(mock, time.Second)
}

func TestAccountRepo_FindByEmail(t *testing.T) {
	id := uuid.New()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		email     string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *account.Account
		wantErr   error
	}{
		{
			name:  "found, email normalized",
			email: "  Alice@Example.COM ",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
					WithArgs("alice@example.com").
					WillReturnRows(pgxmock.NewRows(accountCols).
						AddRow(id, "alice@example.com", "alice", "digest", true, now, now))
			},
			want: &account.Account{
				ID: id, Email: "alice@example.com", Username: "alice", PasswordHash: "digest",
				IsVerified: true, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name:  "absent",
			email: "bob@example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM accounts\s+WHERE email = \$1`).
					WithArgs("bob@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: account.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			tt.setupMock(mock)

			got, err := NewAccountRepo(db).FindByEmail(context.Background(), tt.email)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepo_FindByUsernameAndGet(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewAccountRepo(db)
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM accounts\s+WHERE username = \$1`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows(accountCols).AddRow(id, "a@x.io", "alice", "d", false, now, now))
	mock.ExpectQuery(`FROM accounts\s+WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = repo.Get(context.Background(), id)
	require.ErrorIs(t, err, account.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func insertArgs(a *account.Account) []any {
	return []any{a.ID, a.Email, a.Username, a.PasswordHash, a.IsVerified, a.CreatedAt}
}

func TestAccountRepo_Create(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, a *account.Account)
		wantErr   error
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface, a *account.Account) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(insertArgs(a)...).
					WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			},
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface, a *account.Account) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(insertArgs(a)...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})
			},
			wantErr: account.ErrEmailTaken,
		},
		{
			name: "duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface, a *account.Account) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(insertArgs(a)...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_username_key"})
			},
			wantErr: account.ErrUsernameTaken,
		},
		{
			name: "check violation",
			setupMock: func(mock pgxmock.PgxPoolIface, a *account.Account) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(insertArgs(a)...).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "accounts_email_check"})
			},
			wantErr: ErrConstraint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			a := account.New("alice@example.com", "alice", "digest", now.Add(-time.Second))
			tt.setupMock(mock, a)

			err := NewAccountRepo(db).Create(context.Background(), a)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, now, a.CreatedAt)
				assert.Equal(t, now, a.UpdatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepo_Save(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewAccountRepo(db)
	now := time.Now().UTC()
	a := &account.Account{ID: uuid.New(), Email: "a@x.io", Username: "a", PasswordHash: "d"}

	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs(a.ID, a.Email, a.Username, a.PasswordHash, false).
		WillReturnRows(pgxmock.NewRows([]string{"is_verified", "updated_at"}).AddRow(true, now))
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs(a.ID, a.Email, a.Username, a.PasswordHash, true).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`UPDATE accounts`).
		WithArgs(a.ID, a.Email, a.Username, a.PasswordHash, true).
		WillReturnError(errors.New("connection reset"))

	require.NoError(t, repo.Save(context.Background(), a))
	assert.True(t, a.IsVerified, "verification is monotonic")
	assert.Equal(t, now, a.UpdatedAt)

	require.ErrorIs(t, repo.Save(context.Background(), a), account.ErrNotFound)

	err := repo.Save(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.NoError(t, mock.ExpectationsWereMet())
}
