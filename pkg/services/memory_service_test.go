package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryService_SaveAndList(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db)
	svc := NewMemoryService(db)
	ctx := context.Background()

	_, err := svc.SaveMemory(ctx, userID, "Knows Go and PostgreSQL", "fact")
	require.NoError(t, err)
	_, err = svc.SaveMemory(ctx, userID, "Prefers remote roles", "preference")
	require.NoError(t, err)
	_, err = svc.SaveMemory(ctx, userID, "Targets senior positions", "goal")
	require.NoError(t, err)

	all, err := svc.ListMemories(ctx, userID, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	prefs, err := svc.ListMemories(ctx, userID, "preference", 10)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "Prefers remote roles", prefs[0].Content)
}

func TestMemoryService_SearchByContent(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db)
	svc := NewMemoryService(db)
	ctx := context.Background()

	_, err := svc.SaveMemory(ctx, userID, "ATS score was 72 for the Acme posting", "outcome")
	require.NoError(t, err)
	_, err = svc.SaveMemory(ctx, userID, "Wants to move into fintech", "goal")
	require.NoError(t, err)

	found, err := svc.SearchMemories(ctx, userID, "acme", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Contains(t, found[0].Content, "Acme")

	// Empty query falls back to a recency listing.
	recent, err := svc.SearchMemories(ctx, userID, "", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMemoryService_UnknownCategoryStoredAsFact(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db)
	svc := NewMemoryService(db)

	_, err := svc.SaveMemory(context.Background(), userID, "something", "rumor")
	require.NoError(t, err)

	memories, err := svc.ListMemories(context.Background(), userID, "fact", 10)
	require.NoError(t, err)
	require.Len(t, memories, 1)
	assert.Equal(t, "fact", memories[0].Category)
}

func TestMemoryService_EmptyContentRejected(t *testing.T) {
	svc := NewMemoryService(newTestDB(t))

	_, err := svc.SaveMemory(context.Background(), "user-1", "", "fact")

	assert.True(t, IsValidationError(err))
}

func TestMemoryService_Delete(t *testing.T) {
	db := newTestDB(t)
	userID := createTestUser(t, db)
	svc := NewMemoryService(db)
	ctx := context.Background()

	memID, err := svc.SaveMemory(ctx, userID, "temporary note", "fact")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMemory(ctx, memID, userID))
	assert.ErrorIs(t, svc.DeleteMemory(ctx, memID, userID), ErrNotFound)
}
