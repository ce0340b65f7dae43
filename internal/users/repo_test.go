package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gatepasshq/gatepass-backend/pkg/db/models"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  external_id TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  image_url TEXT,
  role TEXT NOT NULL DEFAULT 'user',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestRepository_CreateAndLookups(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.User{
		ID:         uuid.New(),
		ExternalID: "ext_abc",
		Email:      "casey@example.com",
		Name:       "Casey",
	})
	require.NoError(t, err)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ext_abc", byID.ExternalID)

	byExt, err := repo.FindByExternalID(ctx, "ext_abc")
	require.NoError(t, err)
	require.NotNil(t, byExt)
	assert.Equal(t, created.ID, byExt.ID)

	byEmail, err := repo.FindByEmail(ctx, "casey@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, created.ID, byEmail.ID)

	missing, err := repo.FindByExternalID(ctx, "ext_nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_SetExternalID(t *testing.T) {
	db := setupUsersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, &models.User{
		ID:         uuid.New(),
		ExternalID: "placeholder",
		Email:      "sam@example.com",
		Name:       "Sam",
	})
	require.NoError(t, err)

	require.NoError(t, repo.SetExternalID(ctx, created.ID, "ext_real"))

	found, err := repo.FindByExternalID(ctx, "ext_real")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
}
