package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateFreshDatabase(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db, zap.NewNop()))

	for _, table := range []string{"stores", "products", "daily_prices", "request_log", "harvest_tasks"} {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db, zap.NewNop()))
	require.NoError(t, Migrate(db, zap.NewNop()))

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&applied))
	assert.Equal(t, len(Migrations), applied)
}

func TestTransactionCommits(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, zap.NewNop()))

	err := TransactionOn(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO products (upc, description) VALUES ('0001111041700', 'Whole Milk')`)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db, zap.NewNop()))

	err := TransactionOn(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO products (upc, description) VALUES ('0001111041700', 'Whole Milk')`); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count))
	assert.Zero(t, count)
}
