package service

import (
	"context"
	"errors"
	"fmt"

	"ping-backend/internal/domain"
)

// FriendshipService owns the friend-request lifecycle and the blacklist.
// The conversation core consumes it only through IsAccepted.
type FriendshipService struct {
	users       domain.UserRepository
	friendships domain.FriendshipRepository
	blacklist   domain.BlacklistRepository
}

func NewFriendshipService(
	users domain.UserRepository,
	friendships domain.FriendshipRepository,
	blacklist domain.BlacklistRepository,
) *FriendshipService {
	return &FriendshipService{
		users:       users,
		friendships: friendships,
		blacklist:   blacklist,
	}
}

// FriendEntry pairs a friendship row with the other user for listings.
type FriendEntry struct {
	User        *domain.User            `json:"user"`
	Status      domain.FriendshipStatus `json:"status"`
	RequesterID int64                   `json:"requester_id"`
}

func (s *FriendshipService) SendRequest(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return domain.BadRequest("cannot friend yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("get target: %w", err)
	}
	if target == nil {
		return domain.NotFound("user not found")
	}
	blocked, err := s.blacklist.IsBlocked(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("check blacklist: %w", err)
	}
	if blocked {
		return domain.Forbidden("cannot send a friend request to this user")
	}

	f := &domain.Friendship{
		User1ID:     actorID,
		User2ID:     targetID,
		Status:      domain.FriendshipPending,
		RequesterID: actorID,
	}
	if err := s.friendships.Create(ctx, f); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return domain.BadRequest("friend request already exists")
		}
		return err
	}
	return nil
}

func (s *FriendshipService) AcceptRequest(ctx context.Context, actorID, requesterID int64) error {
	f, err := s.friendships.Get(ctx, actorID, requesterID)
	if err != nil {
		return fmt.Errorf("get friendship: %w", err)
	}
	if f == nil || f.Status != domain.FriendshipPending {
		return domain.NotFound("no pending friend request")
	}
	// Only the addressee can accept.
	if f.RequesterID == actorID {
		return domain.Forbidden("cannot accept your own friend request")
	}
	return s.friendships.UpdateStatus(ctx, actorID, requesterID, domain.FriendshipAccepted)
}

func (s *FriendshipService) DeclineRequest(ctx context.Context, actorID, requesterID int64) error {
	f, err := s.friendships.Get(ctx, actorID, requesterID)
	if err != nil {
		return fmt.Errorf("get friendship: %w", err)
	}
	if f == nil || f.Status != domain.FriendshipPending {
		return domain.NotFound("no pending friend request")
	}
	if f.RequesterID == actorID {
		return domain.Forbidden("cannot decline your own friend request")
	}
	return s.friendships.Delete(ctx, actorID, requesterID)
}

func (s *FriendshipService) RemoveFriend(ctx context.Context, actorID, friendID int64) error {
	f, err := s.friendships.Get(ctx, actorID, friendID)
	if err != nil {
		return fmt.Errorf("get friendship: %w", err)
	}
	if f == nil || f.Status != domain.FriendshipAccepted {
		return domain.NotFound("not friends")
	}
	return s.friendships.Delete(ctx, actorID, friendID)
}

// IsAccepted is the friend gate the conversation service validates against.
func (s *FriendshipService) IsAccepted(ctx context.Context, userA, userB int64) (bool, error) {
	return s.friendships.IsAccepted(ctx, userA, userB)
}

func (s *FriendshipService) Friends(ctx context.Context, viewerID int64) ([]*FriendEntry, error) {
	return s.listEntries(ctx, viewerID, domain.FriendshipAccepted)
}

func (s *FriendshipService) PendingRequests(ctx context.Context, viewerID int64) ([]*FriendEntry, error) {
	return s.listEntries(ctx, viewerID, domain.FriendshipPending)
}

func (s *FriendshipService) listEntries(ctx context.Context, viewerID int64, status domain.FriendshipStatus) ([]*FriendEntry, error) {
	rows, err := s.friendships.ListForUser(ctx, viewerID, status)
	if err != nil {
		return nil, err
	}
	entries := make([]*FriendEntry, 0, len(rows))
	for _, f := range rows {
		u, err := s.users.GetByID(ctx, f.OtherUser(viewerID))
		if err != nil {
			return nil, fmt.Errorf("get user: %w", err)
		}
		if u == nil {
			continue
		}
		entries = append(entries, &FriendEntry{User: u, Status: f.Status, RequesterID: f.RequesterID})
	}
	return entries, nil
}

// Block creates the directed blacklist edge; the repository removes any
// friendship between the pair in the same transaction, so blocked pairs
// never keep an active friendship.
func (s *FriendshipService) Block(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return domain.BadRequest("cannot block yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("get target: %w", err)
	}
	if target == nil {
		return domain.NotFound("user not found")
	}
	return s.blacklist.Block(ctx, actorID, targetID)
}

func (s *FriendshipService) Unblock(ctx context.Context, actorID, targetID int64) error {
	return s.blacklist.Unblock(ctx, actorID, targetID)
}

func (s *FriendshipService) BlockedUsers(ctx context.Context, viewerID int64) ([]*domain.User, error) {
	return s.blacklist.ListBlocked(ctx, viewerID)
}
