package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kazi-ai/kazi/pkg/models"
)

// UserService persists users, profiles, resumes and chat history.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	if db == nil {
		panic("NewUserService: db must not be nil")
	}
	return &UserService{db: db}
}

// CreateUser registers a user and returns the id.
func (s *UserService) CreateUser(ctx context.Context, email, name string) (string, error) {
	if email == "" {
		return "", NewValidationError("email", "email is required")
	}
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name) VALUES ($1, $2, $3)`,
		id, email, name,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// Profile loads the user's career profile. Returns nil when none is set.
func (s *UserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, headline, location, skills, years_of_experience, target_roles, summary
		FROM user_profiles
		WHERE user_id = $1`,
		userID,
	)
	var p models.Profile
	var skillsJSON, rolesJSON []byte
	err := row.Scan(&p.UserID, &p.Name, &p.Headline, &p.Location, &skillsJSON,
		&p.YearsOfExp, &rolesJSON, &p.Summary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if err := json.Unmarshal(skillsJSON, &p.Skills); err != nil {
		return nil, fmt.Errorf("failed to decode profile skills: %w", err)
	}
	if err := json.Unmarshal(rolesJSON, &p.TargetRoles); err != nil {
		return nil, fmt.Errorf("failed to decode profile target roles: %w", err)
	}
	return &p, nil
}

// SaveProfile upserts the user's career profile.
func (s *UserService) SaveProfile(ctx context.Context, p *models.Profile) error {
	if p.UserID == "" {
		return NewValidationError("user_id", "user id is required")
	}
	skillsJSON, err := json.Marshal(p.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	rolesJSON, err := json.Marshal(p.TargetRoles)
	if err != nil {
		return fmt.Errorf("failed to marshal target roles: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, name, headline, location, skills, years_of_experience, target_roles, summary, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			headline = EXCLUDED.headline,
			location = EXCLUDED.location,
			skills = EXCLUDED.skills,
			years_of_experience = EXCLUDED.years_of_experience,
			target_roles = EXCLUDED.target_roles,
			summary = EXCLUDED.summary,
			updated_at = now()`,
		p.UserID, p.Name, p.Headline, p.Location, skillsJSON, p.YearsOfExp, rolesJSON, p.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ResumeText returns the user's default resume content, falling back to the
// most recently updated one. Returns "" when the user has no resume.
func (s *UserService) ResumeText(ctx context.Context, userID string) (string, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content
		FROM user_resumes
		WHERE user_id = $1
		ORDER BY is_default DESC, updated_at DESC
		LIMIT 1`,
		userID,
	)
	var content string
	err := row.Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load resume: %w", err)
	}
	return content, nil
}

// SaveResume stores a resume. Marking it default clears the previous default.
func (s *UserService) SaveResume(ctx context.Context, userID, name, content string, isDefault bool) (string, error) {
	if content == "" {
		return "", NewValidationError("content", "resume content is required")
	}
	if isDefault {
		_, err := s.db.ExecContext(ctx, `
			UPDATE user_resumes SET is_default = false WHERE user_id = $1`,
			userID,
		)
		if err != nil {
			return "", fmt.Errorf("failed to clear default resume: %w", err)
		}
	}
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_resumes (id, user_id, name, content, is_default)
		VALUES ($1, $2, $3, $4, $5)`,
		id, userID, name, content, isDefault,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save resume: %w", err)
	}
	return id, nil
}

// CreateConversation starts a new chat thread.
func (s *UserService) CreateConversation(ctx context.Context, userID, title string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title) VALUES ($1, $2, $3)`,
		id, userID, title,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return id, nil
}

// AddChatMessage appends one turn to a conversation.
func (s *UserService) AddChatMessage(ctx context.Context, conversationID, role, content string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_history (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)`,
		id, conversationID, role, content,
	)
	if err != nil {
		return "", fmt.Errorf("failed to add chat message: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = now() WHERE id = $1`,
		conversationID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to touch conversation: %w", err)
	}
	return id, nil
}

// ChatHistory returns the oldest-first messages of a conversation.
func (s *UserService) ChatHistory(ctx context.Context, conversationID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM chat_history
		WHERE conversation_id = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
