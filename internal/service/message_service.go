package service

import (
	"context"
	"fmt"
	"strings"

	"ping-backend/internal/domain"
)

const (
	defaultPageSize  = 20
	maxPageSize      = 100
	maxContentLength = 5000
)

// MessageService appends messages and serves cursor-paginated history.
type MessageService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
}

func NewMessageService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		users:         users,
	}
}

// MessageResponse is the API shape of a message with its sender attached.
type MessageResponse struct {
	*domain.Message
	Sender *domain.User `json:"sender,omitempty"`
}

// MessagePage is one page of history, newest first. NextCursor is empty when
// the end of history was reached.
type MessagePage struct {
	Messages   []*MessageResponse `json:"messages"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

func (s *MessageService) requireParticipant(ctx context.Context, conversationID, userID int64) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return domain.NotFound("conversation not found")
	}
	p, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("check participant: %w", err)
	}
	if p == nil {
		return domain.Forbidden("you are not a participant of this conversation")
	}
	return nil
}

// Send appends a TEXT message with status SENT and returns it with sender
// info. Messages are immutable once created.
func (s *MessageService) Send(ctx context.Context, senderID, conversationID int64, content string) (*MessageResponse, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.BadRequest("message content cannot be empty")
	}
	if len([]rune(content)) > maxContentLength {
		return nil, domain.BadRequest("message content is too long")
	}
	if err := s.requireParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Type:           domain.MessageText,
		Status:         domain.MessageSent,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, msg)
}

// ListPage returns up to limit messages strictly after the cursor position,
// newest first. Pages over a stable message set never overlap.
func (s *MessageService) ListPage(ctx context.Context, viewerID, conversationID int64, cursor string, limit int) (*MessagePage, error) {
	if err := s.requireParticipant(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var before *domain.MessagePosition
	if cursor != "" {
		pos, err := decodeCursor(cursor)
		if err != nil {
			return nil, domain.BadRequest("invalid cursor")
		}
		before = pos
	}

	msgs, err := s.messages.ListPage(ctx, conversationID, before, limit)
	if err != nil {
		return nil, err
	}

	page := &MessagePage{Messages: make([]*MessageResponse, 0, len(msgs))}
	for _, m := range msgs {
		resp, err := s.toResponse(ctx, m)
		if err != nil {
			return nil, err
		}
		page.Messages = append(page.Messages, resp)
	}
	if len(msgs) == limit {
		last := msgs[len(msgs)-1]
		page.NextCursor = encodeCursor(domain.MessagePosition{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func (s *MessageService) toResponse(ctx context.Context, m *domain.Message) (*MessageResponse, error) {
	sender, err := s.users.GetByID(ctx, m.SenderID)
	if err != nil {
		return nil, fmt.Errorf("get sender: %w", err)
	}
	return &MessageResponse{Message: m, Sender: sender}, nil
}
