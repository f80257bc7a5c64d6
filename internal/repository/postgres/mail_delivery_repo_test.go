package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Gatekeeper/internal/domain/mail"
)

func TestMailDeliveryRepo_Delivered(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewMailDeliveryRepo(db)

	mock.ExpectQuery(`FROM mail_deliveries`).WithArgs("k1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`FROM mail_deliveries`).WithArgs("k2").
		WillReturnError(errors.New("connection reset"))

	ok, err := repo.Delivered(context.Background(), "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.Delivered(context.Background(), "k2")
	require.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMailDeliveryRepo_Record(t *testing.T) {
	mock, db := newMockDB(t)
	repo := NewMailDeliveryRepo(db)
	d := mail.Delivery{
		Key:       "k1",
		AccountID: "acc-1",
		Recipient: "a@x.io",
		Type:      mail.TypeVerify,
		SentAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO mail_deliveries`).
		WithArgs("k1", "acc-1", "a@x.io", "verify", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`ON CONFLICT \(key\) DO NOTHING`).
		WithArgs("k1", "acc-1", "a@x.io", "verify", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	require.NoError(t, repo.Record(context.Background(), d))
	require.NoError(t, repo.Record(context.Background(), d))

	assert.NoError(t, mock.ExpectationsWereMet())
}
