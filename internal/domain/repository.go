package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// UpsertByEmail creates the user on first OAuth login or refreshes
	// name/avatar on subsequent logins; email is the idempotency key.
	UpsertByEmail(ctx context.Context, u *User) error
	Search(ctx context.Context, query string, limit int) ([]*User, error)
}

// SessionRepository defines persistence operations for sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}

// FriendshipRepository persists the canonical-pair friendship graph.
// Implementations must apply OrderPair before every read and write.
type FriendshipRepository interface {
	Create(ctx context.Context, f *Friendship) error
	Get(ctx context.Context, userA, userB int64) (*Friendship, error)
	UpdateStatus(ctx context.Context, userA, userB int64, status FriendshipStatus) error
	Delete(ctx context.Context, userA, userB int64) error
	// IsAccepted is the read-only friend gate the conversation core consumes.
	IsAccepted(ctx context.Context, userA, userB int64) (bool, error)
	ListForUser(ctx context.Context, userID int64, status FriendshipStatus) ([]*Friendship, error)
}

// BlacklistRepository persists directed block edges.
type BlacklistRepository interface {
	// Block inserts the edge and deletes any friendship between the pair
	// in one transaction.
	Block(ctx context.Context, blockerID, blockedID int64) error
	Unblock(ctx context.Context, blockerID, blockedID int64) error
	// IsBlocked reports whether a block edge exists in either direction.
	IsBlocked(ctx context.Context, userA, userB int64) (bool, error)
	ListBlocked(ctx context.Context, blockerID int64) ([]*User, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// CreateDirect inserts a ONE_TO_ONE conversation with both users as
	// MEMBER. Returns ErrDuplicate when the direct key already exists.
	CreateDirect(ctx context.Context, c *Conversation, userA, userB int64) error
	// CreateGroup inserts a GROUP conversation with the owner and all
	// members in one transaction.
	CreateGroup(ctx context.Context, c *Conversation, ownerID int64, memberIDs []int64) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	FindDirect(ctx context.Context, directKey string) (*Conversation, error)
	// ListForUser returns the viewer's conversations sorted pinned-first
	// (pinned_at desc), then by last message recency, message-less rows last.
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	UpdateSettings(ctx context.Context, id int64, name *string, patch GroupSettingsPatch) error
	SetPinned(ctx context.Context, id int64, pinned bool) error
	// Delete removes the conversation with its participants and messages
	// in one transaction (group dissolution).
	Delete(ctx context.Context, id int64) error
}

// ParticipantRepository defines operations around conversation membership.
type ParticipantRepository interface {
	Add(ctx context.Context, conversationID, userID int64, role Role) error
	Get(ctx context.Context, conversationID, userID int64) (*ConversationParticipant, error)
	Remove(ctx context.Context, conversationID, userID int64) error
	Count(ctx context.Context, conversationID int64) (int, error)
	List(ctx context.Context, conversationID int64) ([]*ConversationParticipant, error)
	ListUsers(ctx context.Context, conversationID int64) ([]*User, error)
	// TransferOwnership removes the current owner's row and promotes the
	// successor to OWNER in one transaction, so the one-owner invariant
	// holds at every commit point.
	TransferOwnership(ctx context.Context, conversationID, ownerID, successorID int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	// ListPage returns up to limit messages ordered by (created_at, id)
	// descending, starting strictly after the cursor position when given.
	ListPage(ctx context.Context, conversationID int64, before *MessagePosition, limit int) ([]*Message, error)
}

// MessagePosition identifies a message in the pagination total order.
type MessagePosition struct {
	CreatedAt time.Time
	ID        int64
}
