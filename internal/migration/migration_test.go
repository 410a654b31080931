package migration

import (
	"io/fs"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	assert.True(t, names["000001_init.up.sql"])
	assert.True(t, names["000001_init.down.sql"])
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}

func TestAutoMigrateCreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))
	for _, table := range []string{"invoices", "products", "subscriptions", "branding_settings", "mail_credentials"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
