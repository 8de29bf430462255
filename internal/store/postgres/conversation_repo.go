package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ping-backend/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

const conversationColumns = `id, type, name, direct_key, pinned_at,
	only_owner_can_invite, only_owner_can_kick, only_owner_can_edit,
	created_at, updated_at`

func scanConversation(row interface{ Scan(...any) error }) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := row.Scan(
		&c.ID, &c.Type, &c.Name, &c.DirectKey, &c.PinnedAt,
		&c.Settings.OnlyOwnerCanInvite, &c.Settings.OnlyOwnerCanKick, &c.Settings.OnlyOwnerCanEdit,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return c, nil
}

func insertConversation(ctx context.Context, tx *sql.Tx, c *domain.Conversation) error {
	return tx.QueryRowContext(ctx, `
		INSERT INTO conversations (type, name, direct_key,
			only_owner_can_invite, only_owner_can_kick, only_owner_can_edit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, c.Type, c.Name, c.DirectKey,
		c.Settings.OnlyOwnerCanInvite, c.Settings.OnlyOwnerCanKick, c.Settings.OnlyOwnerCanEdit,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func insertParticipant(ctx context.Context, tx *sql.Tx, conversationID, userID int64, role domain.Role) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_participants (conversation_id, user_id, role)
		VALUES ($1, $2, $3)
	`, conversationID, userID, role)
	return err
}

func (r *ConversationRepo) CreateDirect(ctx context.Context, c *domain.Conversation, userA, userB int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertConversation(ctx, tx, c); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert conversation: %w", err)
	}
	for _, uid := range []int64{userA, userB} {
		if err := insertParticipant(ctx, tx, c.ID, uid, domain.RoleMember); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ConversationRepo) CreateGroup(ctx context.Context, c *domain.Conversation, ownerID int64, memberIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertConversation(ctx, tx, c); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	if err := insertParticipant(ctx, tx, c.ID, ownerID, domain.RoleOwner); err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}
	for _, uid := range memberIDs {
		if err := insertParticipant(ctx, tx, c.ID, uid, domain.RoleMember); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (r *ConversationRepo) FindDirect(ctx context.Context, directKey string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE direct_key = $1`, directKey)
	return scanConversation(row)
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.type, c.name, c.direct_key, c.pinned_at,
			c.only_owner_can_invite, c.only_owner_can_kick, c.only_owner_can_edit,
			c.created_at, c.updated_at,
			(SELECT MAX(m.created_at) FROM messages m WHERE m.conversation_id = c.id) AS last_message_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY (c.pinned_at IS NOT NULL) DESC, c.pinned_at DESC NULLS LAST,
			last_message_at DESC NULLS LAST, c.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(
			&c.ID, &c.Type, &c.Name, &c.DirectKey, &c.PinnedAt,
			&c.Settings.OnlyOwnerCanInvite, &c.Settings.OnlyOwnerCanKick, &c.Settings.OnlyOwnerCanEdit,
			&c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ConversationRepo) UpdateSettings(ctx context.Context, id int64, name *string, patch domain.GroupSettingsPatch) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			name = COALESCE($1, name),
			only_owner_can_invite = COALESCE($2, only_owner_can_invite),
			only_owner_can_kick = COALESCE($3, only_owner_can_kick),
			only_owner_can_edit = COALESCE($4, only_owner_can_edit),
			updated_at = NOW()
		WHERE id = $5
	`, name, patch.OnlyOwnerCanInvite, patch.OnlyOwnerCanKick, patch.OnlyOwnerCanEdit, id)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (r *ConversationRepo) SetPinned(ctx context.Context, id int64, pinned bool) error {
	// Re-pinning keeps the original pinned_at so the pinned ordering stays put.
	query := `UPDATE conversations SET pinned_at = NULL WHERE id = $1`
	if pinned {
		query = `UPDATE conversations SET pinned_at = NOW() WHERE id = $1 AND pinned_at IS NULL`
	}
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("set pinned: %w", err)
	}
	return nil
}

func (r *ConversationRepo) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_participants WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
