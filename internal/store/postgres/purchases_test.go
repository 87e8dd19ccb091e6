package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

var purchaseCols = []string{"id", "session_id", "payment_status", "amount_total", "currency", "plan", "created_at",
	"customer_email", "area_groups", "who", "vibes", "ga_client_id", "hearing"}

func TestPurchaseStore_FindBySessionID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM purchases\s+WHERE session_id = \$1`).
		WithArgs("cs_1").
		WillReturnRows(sqlmock.NewRows(purchaseCols).
			AddRow("7d0c", "cs_1", "paid", int64(4980), "jpy", "Explorer", "2026-01-02T03:04:05Z",
				"a@example.com", "Kyoto", "solo", "quiet", "", ""))
	mock.ExpectQuery(`FROM purchases`).
		WithArgs("cs_none").
		WillReturnRows(sqlmock.NewRows(purchaseCols))

	s := NewPurchaseStore(db, logger.NewTestLogger(t))

	p, err := s.FindBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(4980), *p.AmountTotal)
	assert.Equal(t, "Kyoto", p.AreaGroups)

	p, err = s.FindBySessionID(context.Background(), "cs_none")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseStore_UpsertInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM purchases WHERE session_id = \$1`).
		WithArgs("cs_new").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO purchases`).
		WithArgs(sqlmock.AnyArg(), "cs_new", "paid", sqlmock.AnyArg(), "", "Explorer", "",
			"", "", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := NewPurchaseStore(db, logger.NewTestLogger(t)).Upsert(context.Background(),
		&models.Purchase{SessionID: "cs_new", PaymentStatus: "paid", Plan: "Explorer"})

	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseStore_UpsertUpdatesAndDeletesDuplicates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM purchases WHERE session_id = \$1`).
		WithArgs("cs_dup").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("keep-id"))
	mock.ExpectExec(`UPDATE purchases SET`).
		WithArgs("keep-id", "paid", sqlmock.AnyArg(), "", "", "", "", "", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM purchases WHERE session_id = \$1 AND id <> \$2`).
		WithArgs("cs_dup", "keep-id").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	p, err := NewPurchaseStore(db, logger.NewTestLogger(t)).Upsert(context.Background(),
		&models.Purchase{SessionID: "cs_dup", PaymentStatus: "paid"})

	require.NoError(t, err)
	assert.Equal(t, "keep-id", p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseStore_UpsertRequiresSession(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewPurchaseStore(db, logger.NewTestLogger(t)).Upsert(context.Background(), &models.Purchase{})
	assert.Error(t, err)
}
