package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ping-backend/internal/domain"
	"ping-backend/internal/security"
	"ping-backend/internal/service"
	"ping-backend/internal/store/sqlite"
)

// testEnv wires the services against a real in-memory SQLite database so the
// tests exercise the schema constraints and transactions, not just the
// service logic.
type testEnv struct {
	db *sql.DB

	users         domain.UserRepository
	sessions      domain.SessionRepository
	friendships   domain.FriendshipRepository
	blacklist     domain.BlacklistRepository
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository

	auth    *service.AuthService
	friends *service.FriendshipService
	convs   *service.ConversationService
	msgs    *service.MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, sqlite.Migrate(db))

	env := &testEnv{
		db:            db,
		users:         sqlite.NewUserRepo(db),
		sessions:      sqlite.NewSessionRepo(db),
		friendships:   sqlite.NewFriendshipRepo(db),
		blacklist:     sqlite.NewBlacklistRepo(db),
		conversations: sqlite.NewConversationRepo(db),
		participants:  sqlite.NewParticipantRepo(db),
		messages:      sqlite.NewMessageRepo(db),
	}
	env.auth = service.NewAuthService(
		env.users, env.sessions,
		security.NewPasswordHasher(4), // low cost for tests
		security.NewStateSigner("test-secret", 10*time.Minute),
		nil,
		time.Hour,
	)
	env.friends = service.NewFriendshipService(env.users, env.friendships, env.blacklist)
	env.convs = service.NewConversationService(env.users, env.friendships, env.conversations, env.participants)
	env.msgs = service.NewMessageService(env.conversations, env.participants, env.messages, env.users)
	return env
}

func (e *testEnv) createUser(t *testing.T, name string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email: fmt.Sprintf("%s@example.com", name),
		Name:  name,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

// makeFriends runs the full request/accept flow between the two users.
func (e *testEnv) makeFriends(t *testing.T, a, b *domain.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.friends.SendRequest(ctx, a.ID, b.ID))
	require.NoError(t, e.friends.AcceptRequest(ctx, b.ID, a.ID))
}

func (e *testEnv) countRows(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(query, args...).Scan(&n))
	return n
}
