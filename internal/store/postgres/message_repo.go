package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ping-backend/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, message_type, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Content, m.Type, m.Status).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// ListPage returns newest-first pages over the (created_at, id) total order.
// The cursor position is exclusive: the page starts strictly after it.
func (r *MessageRepo) ListPage(ctx context.Context, conversationID int64, before *domain.MessagePosition, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, message_type, status, created_at
		FROM messages
		WHERE conversation_id = $1
	`
	args := []any{conversationID}
	if before != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, before.CreatedAt, before.ID)
		query += ` ORDER BY created_at DESC, id DESC LIMIT $4`
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $2`
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
