package migration

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/smallbiznis/paylane/internal/config"
	"github.com/smallbiznis/paylane/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)

	versions := make([]string, 0, len(ups))
	for v := range ups {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	assert.True(t, strings.HasPrefix(versions[0], "000001_"))
}

func TestRunAutoMigratesSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	cfg := config.Config{DBType: "sqlite", DBMigrate: true}

	require.NoError(t, Run(conn, cfg, zap.NewNop()))
	for _, table := range []string{"applications", "subscriptions", "payments"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestRunSkipsWhenDisabled(t *testing.T) {
	conn := dbtest.Open(t)
	require.NoError(t, Run(conn, config.Config{DBType: "sqlite"}, zap.NewNop()))
	assert.False(t, conn.Migrator().HasTable("payments"))
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}
