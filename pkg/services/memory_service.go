package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/kazi-ai/kazi/pkg/models"
)

var memoryCategories = map[string]bool{
	"fact": true, "preference": true, "goal": true, "outcome": true,
}

// MemoryService persists episodic memories: facts the agents learned about a
// user across conversations.
type MemoryService struct {
	db *sql.DB
}

// NewMemoryService creates a new MemoryService.
func NewMemoryService(db *sql.DB) *MemoryService {
	if db == nil {
		panic("NewMemoryService: db must not be nil")
	}
	return &MemoryService{db: db}
}

// SaveMemory stores one fact. Unknown categories are stored as "fact".
func (s *MemoryService) SaveMemory(ctx context.Context, userID, content, category string) (string, error) {
	if content == "" {
		return "", NewValidationError("content", "memory content is required")
	}
	if !memoryCategories[category] {
		category = "fact"
	}
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_memories (id, user_id, category, content)
		VALUES ($1, $2, $3, $4)`,
		id, userID, category, content,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save memory: %w", err)
	}
	return id, nil
}

// SearchMemories returns memories matching the query by substring, most
// relevant first. An empty query returns the most recent memories.
func (s *MemoryService) SearchMemories(ctx context.Context, userID, query string, limit int) ([]models.Memory, error) {
	if limit <= 0 {
		limit = 10
	}
	if query == "" {
		return s.ListMemories(ctx, userID, "", limit)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, content, COALESCE(source_conversation_id, ''), relevance_score, created_at
		FROM user_memories
		WHERE user_id = $1 AND (content ILIKE '%' || $2 || '%' OR category ILIKE '%' || $2 || '%')
		ORDER BY relevance_score DESC, created_at DESC
		LIMIT $3`,
		userID, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// ListMemories returns the user's memories, optionally filtered by category.
func (s *MemoryService) ListMemories(ctx context.Context, userID, category string, limit int) ([]models.Memory, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, category, content, COALESCE(source_conversation_id, ''), relevance_score, created_at
		FROM user_memories
		WHERE user_id = $1 AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3`,
		userID, category, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()
	return scanMemories(rows)
}

// DeleteMemory removes one memory owned by the user.
func (s *MemoryService) DeleteMemory(ctx context.Context, memoryID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM user_memories WHERE id = $1 AND user_id = $2`,
		memoryID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check memory delete: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMemories(rows *sql.Rows) ([]models.Memory, error) {
	var memories []models.Memory
	for rows.Next() {
		var m models.Memory
		err := rows.Scan(&m.ID, &m.UserID, &m.Category, &m.Content,
			&m.SourceConvID, &m.RelevanceScore, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// LearnerStore combines trace and memory reads into the history view the
// expertise learner mines.
type LearnerStore struct {
	*TraceService
	*MemoryService
}

// NewLearnerStore creates a LearnerStore over the two services.
func NewLearnerStore(traces *TraceService, memories *MemoryService) *LearnerStore {
	return &LearnerStore{TraceService: traces, MemoryService: memories}
}
