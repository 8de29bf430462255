package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ping-backend/internal/domain"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

var _ domain.ParticipantRepository = (*ParticipantRepo)(nil)

func (r *ParticipantRepo) Add(ctx context.Context, conversationID, userID int64, role domain.Role) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
	`, conversationID, userID, role, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (*domain.ConversationParticipant, error) {
	p := &domain.ConversationParticipant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT conversation_id, user_id, role, joined_at
		FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(&p.ConversationID, &p.UserID, &p.Role, &p.JoinedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

func (r *ParticipantRepo) Remove(ctx context.Context, conversationID, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepo) Count(ctx context.Context, conversationID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = ?
	`, conversationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return count, nil
}

func (r *ParticipantRepo) List(ctx context.Context, conversationID int64) ([]*domain.ConversationParticipant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT conversation_id, user_id, role, joined_at
		FROM conversation_participants
		WHERE conversation_id = ?
		ORDER BY joined_at ASC, user_id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var res []*domain.ConversationParticipant
	for rows.Next() {
		p := &domain.ConversationParticipant{}
		if err := rows.Scan(&p.ConversationID, &p.UserID, &p.Role, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *ParticipantRepo) ListUsers(ctx context.Context, conversationID int64) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.name, u.avatar_url, u.hashed_password, u.created_at
		FROM users u
		JOIN conversation_participants cp ON cp.user_id = u.id
		WHERE cp.conversation_id = ?
		ORDER BY cp.joined_at ASC, u.id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participant users: %w", err)
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// TransferOwnership deletes the departing owner's row before promoting the
// successor, so the one-owner partial index never sees two OWNER rows.
func (r *ParticipantRepo) TransferOwnership(ctx context.Context, conversationID, ownerID, successorID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ? AND role = ?
	`, conversationID, ownerID, domain.RoleOwner); err != nil {
		return fmt.Errorf("remove owner: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE conversation_participants SET role = ?
		WHERE conversation_id = ? AND user_id = ?
	`, domain.RoleOwner, conversationID, successorID)
	if err != nil {
		return fmt.Errorf("promote successor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("promote successor: participant %d not found", successorID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
