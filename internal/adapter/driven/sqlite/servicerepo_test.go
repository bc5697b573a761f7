package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceRepo_SetUsernameInsertsAndOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewServiceRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetUsername(ctx, 12, "101"))
	assert.Equal(t, "101", storedUsername(t, db, 12))

	require.NoError(t, repo.SetUsername(ctx, 12, "205"))
	assert.Equal(t, "205", storedUsername(t, db, 12))
}

func TestServiceRepo_UsernameMissing(t *testing.T) {
	db := setupTestDB(t)

	assert.Equal(t, "", storedUsername(t, db, 404))
}

// storedUsername reads the username column directly, "" when the row is absent.
func storedUsername(t *testing.T, db *DB, serviceID int64) string {
	t.Helper()

	var username string
	err := db.Reader.QueryRowContext(context.Background(), `SELECT username FROM services WHERE id = ?`, serviceID).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return ""
	}
	require.NoError(t, err)
	return username
}
