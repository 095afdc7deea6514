package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/ledger/internal/domain/trade"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDatabase opens a migrated in-memory sqlite database
func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("sqlite in memory", func(t *testing.T) {
		db := newTestDatabase(t)
		assert.NoError(t, db.Ping(context.Background()))
		for _, table := range []string{"items", "parties", "invoices", "invoice_lines", "payments"} {
			assert.True(t, db.DB.Migrator().HasTable(table), table)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, nil)
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}

func TestDialector(t *testing.T) {
	pg, err := Dialector(&config.DatabaseConfig{Driver: config.DriverPostgres, Host: "db", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name())

	lite, err := Dialector(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", lite.Name())
}

func TestApplyStockDeltas_SQL(t *testing.T) {
	a := testutil.NewTestUUID("item-a")
	b := testutil.NewTestUUID("item-b")
	update := regexp.QuoteMeta(`UPDATE "items" SET "current_stock"=current_stock + $1 WHERE id = $2`)

	t.Run("one atomic increment per item inside the transaction", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectExec(update).WithArgs("-3", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		mdb.Mock.ExpectExec(update).WithArgs("5", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		mdb.Mock.ExpectCommit()

		deltas := []trade.StockDelta{
			{ItemID: a, Quantity: testutil.Dec("-3")},
			{ItemID: b, Quantity: testutil.Dec("5")},
		}
		err := mdb.DB.Transaction(func(tx *gorm.DB) error {
			return applyStockDeltas(tx, deltas)
		})
		require.NoError(t, err)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("missing item rolls back", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 0))
		mdb.Mock.ExpectRollback()

		err := mdb.DB.Transaction(func(tx *gorm.DB) error {
			return applyStockDeltas(tx, []trade.StockDelta{{ItemID: a, Quantity: testutil.Dec("1")}})
		})
		assert.ErrorContains(t, err, "not found")
		mdb.ExpectationsWereMet(t)
	})
}

func TestGormItemRepository_SetCurrentStock_SQL(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	id := testutil.NewTestUUID("item")

	mdb.Mock.ExpectExec(regexp.QuoteMeta(`UPDATE "items" SET "current_stock"=$1 WHERE id = $2`)).
		WithArgs("12.5", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewGormItemRepository(mdb.DB)
	require.NoError(t, repo.SetCurrentStock(context.Background(), id, testutil.Dec("12.5")))
	mdb.ExpectationsWereMet(t)
}

func TestNetDeltas(t *testing.T) {
	a := testutil.NewTestUUID("a")
	b := testutil.NewTestUUID("b")

	previous := []trade.StockDelta{{ItemID: a, Quantity: testutil.Dec("-8")}, {ItemID: b, Quantity: testutil.Dec("-2")}}
	next := []trade.StockDelta{{ItemID: a, Quantity: testutil.Dec("-9")}, {ItemID: b, Quantity: testutil.Dec("-2")}}

	deltas := netDeltas(previous, next)
	require.Len(t, deltas, 1, "unchanged items produce no statement")
	assert.Equal(t, a, deltas[0].ItemID)
	assert.Equal(t, "-1", deltas[0].Quantity.String())

	reversed := netDeltas(previous, nil)
	require.Len(t, reversed, 2)
	for _, d := range reversed {
		assert.True(t, d.Quantity.IsPositive())
	}
}
