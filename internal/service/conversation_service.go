package service

import (
	"context"
	"errors"
	"fmt"

	"ping-backend/internal/domain"
)

// ConversationService owns conversation creation and the group membership
// rules: friend gating, role permissions, ownership transfer and dissolution.
type ConversationService struct {
	users         domain.UserRepository
	friendships   domain.FriendshipRepository
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
}

func NewConversationService(
	users domain.UserRepository,
	friendships domain.FriendshipRepository,
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
) *ConversationService {
	return &ConversationService{
		users:         users,
		friendships:   friendships,
		conversations: conversations,
		participants:  participants,
	}
}

// ConversationDetail is a conversation joined with its annotated members.
type ConversationDetail struct {
	Conversation *domain.Conversation `json:"conversation"`
	Participants []*domain.Participant `json:"participants"`
}

func (s *ConversationService) requireFriend(ctx context.Context, viewerID, targetID int64) error {
	ok, err := s.friendships.IsAccepted(ctx, viewerID, targetID)
	if err != nil {
		return fmt.Errorf("check friendship: %w", err)
	}
	if !ok {
		return domain.Forbidden("you are not friends with this user")
	}
	return nil
}

// GetOrCreateDirect returns the single ONE_TO_ONE conversation for the pair,
// creating it on first use. Repeated calls never create duplicates: the
// direct key is unique in storage, and a lost creation race falls back to
// reading the winning row.
func (s *ConversationService) GetOrCreateDirect(ctx context.Context, viewerID, targetID int64) (*domain.Conversation, error) {
	if viewerID == targetID {
		return nil, domain.BadRequest("cannot start a conversation with yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	if target == nil {
		return nil, domain.NotFound("user not found")
	}
	if err := s.requireFriend(ctx, viewerID, targetID); err != nil {
		return nil, err
	}

	key := domain.PairKey(viewerID, targetID)
	if existing, err := s.conversations.FindDirect(ctx, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		Type:      domain.ConversationOneToOne,
		DirectKey: &key,
	}
	err = s.conversations.CreateDirect(ctx, conv, viewerID, targetID)
	if errors.Is(err, domain.ErrDuplicate) {
		return s.conversations.FindDirect(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// CreateGroup creates a GROUP conversation with the creator as OWNER. Every
// listed user must be a friend of the creator; one unrelated id fails the
// whole call with no partial creation.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID int64, name string, userIDs []int64) (*domain.Conversation, error) {
	if name == "" {
		return nil, domain.BadRequest("group name is required")
	}
	if len(userIDs) == 0 {
		return nil, domain.BadRequest("at least one member is required")
	}

	seen := map[int64]struct{}{creatorID: {}}
	members := make([]int64, 0, len(userIDs))
	for _, id := range userIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) == 0 {
		return nil, domain.BadRequest("at least one member is required")
	}
	for _, id := range members {
		if err := s.requireFriend(ctx, creatorID, id); err != nil {
			return nil, err
		}
	}

	conv := &domain.Conversation{
		Type:     domain.ConversationGroup,
		Name:     &name,
		Settings: domain.DefaultGroupSettings(),
	}
	if err := s.conversations.CreateGroup(ctx, conv, creatorID, members); err != nil {
		return nil, err
	}
	return conv, nil
}

// getGroup loads a conversation and the actor's membership, enforcing the
// participant gate shared by all group mutations.
func (s *ConversationService) getGroup(ctx context.Context, conversationID, actorID int64) (*domain.Conversation, *domain.ConversationParticipant, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conv == nil {
		return nil, nil, domain.NotFound("conversation not found")
	}
	if conv.Type != domain.ConversationGroup {
		return nil, nil, domain.BadRequest("not a group conversation")
	}
	actor, err := s.participants.Get(ctx, conversationID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if actor == nil {
		return nil, nil, domain.Forbidden("you are not a participant of this conversation")
	}
	return conv, actor, nil
}

// Invite adds a friend of the actor as MEMBER. Any member may extend their
// own social graph into the group unless onlyOwnerCanInvite is set.
// Re-inviting a previously removed member is allowed.
func (s *ConversationService) Invite(ctx context.Context, actorID, conversationID, userID int64) (*domain.Conversation, error) {
	conv, actor, err := s.getGroup(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if conv.Settings.OnlyOwnerCanInvite && actor.Role != domain.RoleOwner {
		return nil, domain.Forbidden("only the owner can invite")
	}
	invitee, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get invitee: %w", err)
	}
	if invitee == nil {
		return nil, domain.NotFound("user not found")
	}
	if err := s.requireFriend(ctx, actorID, userID); err != nil {
		return nil, err
	}

	err = s.participants.Add(ctx, conversationID, userID, domain.RoleMember)
	if errors.Is(err, domain.ErrDuplicate) {
		// Already a member; inviting again is a no-op.
		return conv, nil
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Remove kicks a participant. Owner-only by default (onlyOwnerCanKick).
// The owner can never be the target: removing the owner would leave the
// group ownerless.
func (s *ConversationService) Remove(ctx context.Context, actorID, conversationID, userID int64) error {
	conv, actor, err := s.getGroup(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if conv.Settings.OnlyOwnerCanKick && actor.Role != domain.RoleOwner {
		return domain.Forbidden("only the owner can remove members")
	}
	target, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return domain.NotFound("user is not a participant")
	}
	if target.Role == domain.RoleOwner {
		return domain.Forbidden("the owner cannot be removed")
	}
	return s.participants.Remove(ctx, conversationID, userID)
}

// Leave removes the actor from the group. A departing owner must name a
// successor while other members remain; as the last participant, leaving
// dissolves the conversation entirely.
func (s *ConversationService) Leave(ctx context.Context, actorID, conversationID int64, successorID *int64) error {
	_, actor, err := s.getGroup(ctx, conversationID, actorID)
	if err != nil {
		return err
	}

	if actor.Role != domain.RoleOwner {
		return s.participants.Remove(ctx, conversationID, actorID)
	}

	count, err := s.participants.Count(ctx, conversationID)
	if err != nil {
		return err
	}
	if count <= 1 {
		// Sole remaining participant: the group dissolves.
		return s.conversations.Delete(ctx, conversationID)
	}

	if successorID == nil {
		return domain.BadRequest("a successor is required when the owner leaves")
	}
	if *successorID == actorID {
		return domain.BadRequest("successor must be another participant")
	}
	successor, err := s.participants.Get(ctx, conversationID, *successorID)
	if err != nil {
		return err
	}
	if successor == nil {
		return domain.BadRequest("successor must be an existing participant")
	}
	return s.participants.TransferOwnership(ctx, conversationID, actorID, *successorID)
}

// UpdateSettings applies partial updates to the group name and permission
// flags. The edit gate itself is one of the flags: when onlyOwnerCanEdit is
// set, only the owner may change anything.
func (s *ConversationService) UpdateSettings(ctx context.Context, actorID, conversationID int64, name *string, patch domain.GroupSettingsPatch) (*domain.Conversation, error) {
	conv, actor, err := s.getGroup(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}
	if conv.Settings.OnlyOwnerCanEdit && actor.Role != domain.RoleOwner {
		return nil, domain.Forbidden("only the owner can edit this group")
	}
	if name != nil && *name == "" {
		return nil, domain.BadRequest("group name cannot be empty")
	}
	if err := s.conversations.UpdateSettings(ctx, conversationID, name, patch); err != nil {
		return nil, err
	}
	return s.conversations.GetByID(ctx, conversationID)
}

// SetPinned pins or unpins a conversation for its participants. Pinning an
// already pinned conversation is an observable no-op.
func (s *ConversationService) SetPinned(ctx context.Context, actorID, conversationID int64, pinned bool) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return domain.NotFound("conversation not found")
	}
	actor, err := s.participants.Get(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if actor == nil {
		return domain.Forbidden("you are not a participant of this conversation")
	}
	return s.conversations.SetPinned(ctx, conversationID, pinned)
}

// List returns the viewer's conversations: pinned first, then by last
// message recency, message-less conversations last.
func (s *ConversationService) List(ctx context.Context, viewerID int64) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, viewerID)
}

// Get returns a conversation with its participants, each annotated with the
// viewer-relative isFriend flag. The viewer's own entry is never a friend.
func (s *ConversationService) Get(ctx context.Context, viewerID, conversationID int64) (*ConversationDetail, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.NotFound("conversation not found")
	}
	viewer, err := s.participants.Get(ctx, conversationID, viewerID)
	if err != nil {
		return nil, err
	}
	if viewer == nil {
		return nil, domain.Forbidden("you are not a participant of this conversation")
	}

	rows, err := s.participants.List(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	users, err := s.participants.ListUsers(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	detail := &ConversationDetail{Conversation: conv}
	for _, p := range rows {
		u := byID[p.UserID]
		if u == nil {
			continue
		}
		entry := &domain.Participant{User: *u, Role: p.Role}
		if p.UserID != viewerID {
			isFriend, err := s.friendships.IsAccepted(ctx, viewerID, p.UserID)
			if err != nil {
				return nil, fmt.Errorf("check friendship: %w", err)
			}
			entry.IsFriend = isFriend
		}
		detail.Participants = append(detail.Participants, entry)
	}
	return detail, nil
}

// ParticipantIDs returns the user ids of a conversation's members, for
// websocket broadcasts.
func (s *ConversationService) ParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	rows, err := s.participants.List(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(rows))
	for i, p := range rows {
		ids[i] = p.UserID
	}
	return ids, nil
}

// IsParticipant reports whether userID belongs to the conversation.
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	p, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}
