package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ping-backend/internal/domain"
)

type FriendshipRepo struct {
	db *sql.DB
}

func NewFriendshipRepo(db *sql.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

var _ domain.FriendshipRepository = (*FriendshipRepo)(nil)

func (r *FriendshipRepo) Create(ctx context.Context, f *domain.Friendship) error {
	f.User1ID, f.User2ID = domain.OrderPair(f.User1ID, f.User2ID)
	f.CreatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO friendships (user1_id, user2_id, status, requester_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, f.User1ID, f.User2ID, f.Status, f.RequesterID, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert friendship: %w", err)
	}
	return nil
}

func (r *FriendshipRepo) Get(ctx context.Context, userA, userB int64) (*domain.Friendship, error) {
	lo, hi := domain.OrderPair(userA, userB)
	f := &domain.Friendship{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user1_id, user2_id, status, requester_id, created_at
		FROM friendships
		WHERE user1_id = ? AND user2_id = ?
	`, lo, hi).Scan(&f.User1ID, &f.User2ID, &f.Status, &f.RequesterID, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get friendship: %w", err)
	}
	return f, nil
}

func (r *FriendshipRepo) UpdateStatus(ctx context.Context, userA, userB int64, status domain.FriendshipStatus) error {
	lo, hi := domain.OrderPair(userA, userB)
	_, err := r.db.ExecContext(ctx, `
		UPDATE friendships SET status = ? WHERE user1_id = ? AND user2_id = ?
	`, status, lo, hi)
	if err != nil {
		return fmt.Errorf("update friendship status: %w", err)
	}
	return nil
}

func (r *FriendshipRepo) Delete(ctx context.Context, userA, userB int64) error {
	lo, hi := domain.OrderPair(userA, userB)
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM friendships WHERE user1_id = ? AND user2_id = ?
	`, lo, hi)
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

func (r *FriendshipRepo) IsAccepted(ctx context.Context, userA, userB int64) (bool, error) {
	lo, hi := domain.OrderPair(userA, userB)
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM friendships
		WHERE user1_id = ? AND user2_id = ? AND status = ?
	`, lo, hi, domain.FriendshipAccepted).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is accepted: %w", err)
	}
	return true, nil
}

func (r *FriendshipRepo) ListForUser(ctx context.Context, userID int64, status domain.FriendshipStatus) ([]*domain.Friendship, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user1_id, user2_id, status, requester_id, created_at
		FROM friendships
		WHERE (user1_id = ? OR user2_id = ?) AND status = ?
		ORDER BY created_at DESC
	`, userID, userID, status)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	defer rows.Close()

	var res []*domain.Friendship
	for rows.Next() {
		f := &domain.Friendship{}
		if err := rows.Scan(&f.User1ID, &f.User2ID, &f.Status, &f.RequesterID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

type BlacklistRepo struct {
	db *sql.DB
}

func NewBlacklistRepo(db *sql.DB) *BlacklistRepo {
	return &BlacklistRepo{db: db}
}

var _ domain.BlacklistRepository = (*BlacklistRepo)(nil)

// Block inserts the edge and removes any friendship between the pair in one
// transaction, so a blocked pair can never keep an active friendship.
func (r *BlacklistRepo) Block(ctx context.Context, blockerID, blockedID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO blacklist (blocker_id, blocked_id, created_at)
		VALUES (?, ?, ?)
	`, blockerID, blockedID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert blacklist: %w", err)
	}

	lo, hi := domain.OrderPair(blockerID, blockedID)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM friendships WHERE user1_id = ? AND user2_id = ?
	`, lo, hi); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *BlacklistRepo) Unblock(ctx context.Context, blockerID, blockedID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM blacklist WHERE blocker_id = ? AND blocked_id = ?
	`, blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("delete blacklist: %w", err)
	}
	return nil
}

func (r *BlacklistRepo) IsBlocked(ctx context.Context, userA, userB int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM blacklist
		WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)
	`, userA, userB, userB, userA).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is blocked: %w", err)
	}
	return true, nil
}

func (r *BlacklistRepo) ListBlocked(ctx context.Context, blockerID int64) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, u.name, u.avatar_url, u.hashed_password, u.created_at
		FROM users u
		JOIN blacklist b ON b.blocked_id = u.id
		WHERE b.blocker_id = ?
		ORDER BY b.created_at DESC
	`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("list blocked: %w", err)
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
