package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	testdb "github.com/kazi-ai/kazi/test/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return testdb.NewTestClient(t).DB()
}

func createTestUser(t *testing.T, db *sql.DB) string {
	t.Helper()
	userID, err := NewUserService(db).CreateUser(context.Background(), "user@test.dev", "Test User")
	require.NoError(t, err)
	return userID
}
