package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ping-backend/internal/domain"
	"ping-backend/internal/security"
)

// AuthService handles OAuth and credentials login, and resolves session
// tokens to users for the request middleware.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	hash       *security.PasswordHasher
	state      *security.StateSigner
	providers  map[string]*security.OAuthProvider
	sessionTTL time.Duration
}

func NewAuthService(
	users domain.UserRepository,
	sessions domain.SessionRepository,
	hash *security.PasswordHasher,
	state *security.StateSigner,
	providers []*security.OAuthProvider,
	sessionTTL time.Duration,
) *AuthService {
	byName := make(map[string]*security.OAuthProvider, len(providers))
	for _, p := range providers {
		byName[p.Name] = p
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hash:       hash,
		state:      state,
		providers:  byName,
		sessionTTL: sessionTTL,
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type SessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Name == "" || in.Password == "" {
		return nil, domain.BadRequest("email, name and password are required")
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:          email,
		Name:           in.Name,
		HashedPassword: &hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.BadRequest("email already registered")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*SessionResponse, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.HashedPassword == nil {
		return nil, domain.Unauthenticated("incorrect email or password")
	}
	if err := s.hash.Verify(in.Password, *user.HashedPassword); err != nil {
		return nil, domain.Unauthenticated("incorrect email or password")
	}
	return s.issueSession(ctx, user)
}

// BeginOAuth returns the provider redirect URL carrying a signed state token.
func (s *AuthService) BeginOAuth(provider string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", domain.BadRequest("unknown oauth provider")
	}
	state, err := s.state.Sign(provider)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return p.AuthCodeURL(state), nil
}

// CompleteOAuth verifies the state, exchanges the code for the provider
// identity, and upserts the user by email before issuing a session. Repeated
// logins with the same email land on the same user row.
func (s *AuthService) CompleteOAuth(ctx context.Context, provider, code, state string) (*SessionResponse, error) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, domain.BadRequest("unknown oauth provider")
	}
	if code == "" || state == "" {
		return nil, domain.BadRequest("code and state are required")
	}
	if err := s.state.Verify(state, provider); err != nil {
		return nil, domain.Unauthenticated("invalid oauth state")
	}

	info, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, domain.Unauthenticated("oauth exchange failed")
	}

	user := &domain.User{
		Email: strings.ToLower(info.Email),
		Name:  info.Name,
	}
	if info.AvatarURL != "" {
		user.AvatarURL = &info.AvatarURL
	}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

// Authenticate resolves a bearer token to its user. Expired sessions are
// deleted when encountered and report as unauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.Unauthenticated("missing session token")
	}
	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, domain.Unauthenticated("invalid session")
	}
	if sess.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, domain.Unauthenticated("session expired")
	}
	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.Unauthenticated("invalid session")
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*SessionResponse, error) {
	sess := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL).UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &SessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      user,
	}, nil
}
