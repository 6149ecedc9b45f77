package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
}

func TestOrdersMigrationEnforcesUniqueTxnID(t *testing.T) {
	raw, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/000002_orders.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "UNIQUE INDEX IF NOT EXISTS ux_orders_txn_id ON orders (txn_id)")
}
