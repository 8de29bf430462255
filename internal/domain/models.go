package domain

import (
	"fmt"
	"time"
)

// User represents an application user. Users are created either through a
// credentials registration or upserted by email on first OAuth login.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	HashedPassword *string   `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Session is an opaque bearer token bound to a user. A session is invalid
// once ExpiresAt has passed; expired rows are deleted when encountered.
type Session struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// FriendshipStatus is the lifecycle state of a friendship row.
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
)

// Friendship is a single row per unordered user pair, stored with
// User1ID < User2ID. RequesterID records which side sent the request.
type Friendship struct {
	User1ID     int64            `db:"user1_id"`
	User2ID     int64            `db:"user2_id"`
	Status      FriendshipStatus `db:"status"`
	RequesterID int64            `db:"requester_id"`
	CreatedAt   time.Time        `db:"created_at"`
}

// OtherUser returns the pair member that is not userID.
func (f *Friendship) OtherUser(userID int64) int64 {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}

// OrderPair canonicalizes an unordered user pair so the smaller id comes
// first. Applied before every friendship read or write, regardless of
// request direction.
func OrderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// PairKey returns a stable string key for an unordered user pair. Used as
// the uniqueness key for one-to-one conversations.
func PairKey(a, b int64) string {
	lo, hi := OrderPair(a, b)
	return fmt.Sprintf("%d:%d", lo, hi)
}

// BlacklistEntry is a directed block edge. Creating one removes any
// friendship between the pair in the same transaction.
type BlacklistEntry struct {
	BlockerID int64     `db:"blocker_id"`
	BlockedID int64     `db:"blocked_id"`
	CreatedAt time.Time `db:"created_at"`
}

// ConversationType distinguishes direct and group conversations.
type ConversationType string

const (
	ConversationOneToOne ConversationType = "ONE_TO_ONE"
	ConversationGroup    ConversationType = "GROUP"
)

// Role is a participant's role inside a group conversation. A group has
// exactly one OWNER while it exists; one-to-one participants are all MEMBER.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// GroupSettings are the per-group permission flags. Kicking defaults to
// owner-only; inviting and editing default to any member.
type GroupSettings struct {
	OnlyOwnerCanInvite bool `db:"only_owner_can_invite" json:"only_owner_can_invite"`
	OnlyOwnerCanKick   bool `db:"only_owner_can_kick" json:"only_owner_can_kick"`
	OnlyOwnerCanEdit   bool `db:"only_owner_can_edit" json:"only_owner_can_edit"`
}

// DefaultGroupSettings returns the flag values applied at group creation.
func DefaultGroupSettings() GroupSettings {
	return GroupSettings{
		OnlyOwnerCanInvite: false,
		OnlyOwnerCanKick:   true,
		OnlyOwnerCanEdit:   false,
	}
}

// GroupSettingsPatch is a partial update of GroupSettings; nil fields are
// left unchanged.
type GroupSettingsPatch struct {
	OnlyOwnerCanInvite *bool `json:"only_owner_can_invite"`
	OnlyOwnerCanKick   *bool `json:"only_owner_can_kick"`
	OnlyOwnerCanEdit   *bool `json:"only_owner_can_edit"`
}

// Conversation is a direct or group chat. PinnedAt non-nil means the viewer
// list sorts it before unpinned conversations. DirectKey is the canonical
// participant pair key for ONE_TO_ONE rows (nil for groups) and carries a
// uniqueness constraint so concurrent get-or-create races collapse to one row.
type Conversation struct {
	ID        int64            `db:"id" json:"id"`
	Type      ConversationType `db:"type" json:"type"`
	Name      *string          `db:"name" json:"name,omitempty"`
	DirectKey *string          `db:"direct_key" json:"-"`
	PinnedAt  *time.Time       `db:"pinned_at" json:"pinned_at,omitempty"`
	Settings  GroupSettings    `json:"settings"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`

	// LastMessageAt is populated by the viewer listing query only.
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// ConversationParticipant is the membership of a user in a conversation.
type ConversationParticipant struct {
	ConversationID int64     `db:"conversation_id"`
	UserID         int64     `db:"user_id"`
	Role           Role      `db:"role"`
	JoinedAt       time.Time `db:"joined_at"`
}

// Participant is a conversation member joined with their user record, as
// returned by the conversation detail view. IsFriend is viewer-relative:
// true iff the member has an accepted friendship with the viewer, and
// always false for the viewer's own entry.
type Participant struct {
	User     User `json:"user"`
	Role     Role `json:"role"`
	IsFriend bool `json:"is_friend"`
}

// MessageType and MessageStatus are fixed to TEXT/SENT for now; the columns
// exist so richer types can be added without a schema change.
type MessageType string

const MessageText MessageType = "TEXT"

type MessageStatus string

const MessageSent MessageStatus = "SENT"

// Message is an append-only chat message. Messages are immutable once
// created and ordered by (created_at, id) descending for pagination.
type Message struct {
	ID             int64         `db:"id" json:"id"`
	ConversationID int64         `db:"conversation_id" json:"conversation_id"`
	SenderID       int64         `db:"sender_id" json:"sender_id"`
	Content        string        `db:"content" json:"content"`
	Type           MessageType   `db:"message_type" json:"message_type"`
	Status         MessageStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
