package service

import (
	"context"
	"strings"

	"ping-backend/internal/domain"
)

// UserService serves user lookups and the people search used to send
// friend requests.
type UserService struct {
	users domain.UserRepository
}

func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *UserService) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.BadRequest("search query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.users.Search(ctx, query, limit)
}
