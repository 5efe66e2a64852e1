package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

func TestOpenMemoryMigrates(t *testing.T) {
	ctx := context.Background()
	gdb, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T table missing", m)
	}
	assert.True(t, gdb.Migrator().HasIndex(&models.CartItem{}, "idx_cart_product"))
	require.NoError(t, Ping(ctx, gdb))
}

func TestMigrateBackfillsFoldedKeys(t *testing.T) {
	ctx := context.Background()
	gdb, err := OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(gdb) })

	// a row from before the folded columns existed
	require.NoError(t, gdb.Exec(
		`INSERT INTO products (code, name, description, price, num_in_stock, created_at, updated_at) VALUES ('OEL-1', 'Ölige Schlange', 'd', '1.00', 1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
	).Error)

	require.NoError(t, Migrate(ctx, gdb))
	var p models.Product
	require.NoError(t, gdb.Where("code = ?", "OEL-1").First(&p).Error)
	assert.Equal(t, "oel-1", p.CodeFolded)
	assert.Equal(t, "ölige schlange", p.NameFolded)
}

func TestDialector(t *testing.T) {
	_, err := Dialector("postgres", "")
	require.Error(t, err)

	d, err := Dialector("postgres", "postgres://u:p@localhost/db")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector("sqlite", "")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector("mysql", "x")
	require.Error(t, err)
}
