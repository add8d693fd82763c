package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSettingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS settings (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  key TEXT NOT NULL UNIQUE,
  value TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepositoryUpsertInsertsThenUpdates(t *testing.T) {
	repo := NewRepository(setupSettingsTestDB(t))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, "site_name", "INFLUENCIANDO")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "INFLUENCIANDO", created.Value)

	updated, err := repo.Upsert(ctx, "site_name", "INFLUENCIANDO 2.0")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "INFLUENCIANDO 2.0", updated.Value)
	assert.Equal(t, created.ID, updated.ID, "upsert must keep the existing row")
}

func TestRepositoryFindByKeyMissing(t *testing.T) {
	repo := NewRepository(setupSettingsTestDB(t))

	setting, err := repo.FindByKey(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, setting)
}

func TestRepositoryListOrderedByKey(t *testing.T) {
	repo := NewRepository(setupSettingsTestDB(t))
	ctx := context.Background()

	for _, key := range []string{"webhook_url", "site_name", "support_email"} {
		_, err := repo.Upsert(ctx, key, "v")
		require.NoError(t, err)
	}

	listed, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "site_name", listed[0].Key)
	assert.Equal(t, "support_email", listed[1].Key)
	assert.Equal(t, "webhook_url", listed[2].Key)
	for _, setting := range listed {
		assert.NotEqual(t, uuid.Nil, setting.ID)
	}
}
