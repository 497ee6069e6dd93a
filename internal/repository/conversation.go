package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/entity"
)

// ConversationStore holds chat threads, listed most-recently-updated first.
type ConversationStore interface {
	Put(ctx context.Context, conv entity.Conversation) error
	GetAll(ctx context.Context) ([]entity.Conversation, error)
	Get(ctx context.Context, id string) (*entity.Conversation, error)
	Delete(ctx context.Context, id string) error
}

type conversationStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewConversationStore(db *sql.DB, logger *slog.Logger) ConversationStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &conversationStore{db: db, logger: logger}
}

func (s *conversationStore) Put(ctx context.Context, conv entity.Conversation) error {
	messages, err := json.Marshal(conv.Messages)
	if err != nil {
		return common.WrapError(err, "encode messages")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, messages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title      = excluded.title,
			messages   = excluded.messages,
			updated_at = excluded.updated_at`,
		conv.ID, conv.Title, string(messages), conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		s.logger.Error("conversations.put.failed", "id", conv.ID, "error", err)
		return common.WrapError(err, "put conversation")
	}
	return nil
}

func (s *conversationStore) GetAll(ctx context.Context) ([]entity.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, messages, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "query conversations")
	}
	defer rows.Close()

	var convs []entity.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (s *conversationStore) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, messages, created_at, updated_at
		FROM conversations WHERE id = $1`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundErrorf("conversation %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *conversationStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return common.WrapError(err, "delete conversation")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.NotFoundErrorf("conversation %s", id)
	}
	return nil
}

func scanConversation(r rowScanner) (entity.Conversation, error) {
	var conv entity.Conversation
	var messages string
	if err := r.Scan(&conv.ID, &conv.Title, &messages, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return entity.Conversation{}, err
	}
	if err := json.Unmarshal([]byte(messages), &conv.Messages); err != nil {
		conv.Messages = []entity.ChatMessage{}
	}
	return conv, nil
}
