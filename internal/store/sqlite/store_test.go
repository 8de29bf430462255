package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-backend/internal/domain"
	"ping-backend/internal/store/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, sqlite.Migrate(db))
	return db
}

func seedUsers(t *testing.T, db *sql.DB, names ...string) []*domain.User {
	t.Helper()
	repo := sqlite.NewUserRepo(db)
	users := make([]*domain.User, len(names))
	for i, name := range names {
		u := &domain.User{Email: name + "@example.com", Name: name}
		require.NoError(t, repo.Create(context.Background(), u))
		users[i] = u
	}
	return users
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewUserRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@example.com", Name: "a"}))
	err := repo.Create(ctx, &domain.User{Email: "a@example.com", Name: "other"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUserRepoUpsertByEmail(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewUserRepo(db)
	ctx := context.Background()

	first := &domain.User{Email: "oauth@example.com", Name: "First Login"}
	require.NoError(t, repo.UpsertByEmail(ctx, first))
	require.NotZero(t, first.ID)

	again := &domain.User{Email: "oauth@example.com", Name: "Renamed"}
	require.NoError(t, repo.UpsertByEmail(ctx, again))
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Renamed", again.Name)
}

func TestDirectKeyIsUnique(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewConversationRepo(db)
	ctx := context.Background()

	users := seedUsers(t, db, "a", "b")
	key := domain.PairKey(users[0].ID, users[1].ID)

	first := &domain.Conversation{Type: domain.ConversationOneToOne, DirectKey: &key}
	require.NoError(t, repo.CreateDirect(ctx, first, users[0].ID, users[1].ID))

	second := &domain.Conversation{Type: domain.ConversationOneToOne, DirectKey: &key}
	err := repo.CreateDirect(ctx, second, users[1].ID, users[0].ID)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	found, err := repo.FindDirect(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestOneOwnerIndex(t *testing.T) {
	db := openTestDB(t)
	convs := sqlite.NewConversationRepo(db)
	parts := sqlite.NewParticipantRepo(db)
	ctx := context.Background()

	users := seedUsers(t, db, "a", "b", "c")
	name := "team"
	conv := &domain.Conversation{
		Type:     domain.ConversationGroup,
		Name:     &name,
		Settings: domain.DefaultGroupSettings(),
	}
	require.NoError(t, convs.CreateGroup(ctx, conv, users[0].ID, []int64{users[1].ID}))

	// The partial index rejects a second OWNER row outright.
	err := parts.Add(ctx, conv.ID, users[2].ID, domain.RoleOwner)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, parts.TransferOwnership(ctx, conv.ID, users[0].ID, users[1].ID))

	p, err := parts.Get(ctx, conv.ID, users[1].ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.RoleOwner, p.Role)

	gone, err := parts.Get(ctx, conv.ID, users[0].ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTransferOwnershipUnknownSuccessor(t *testing.T) {
	db := openTestDB(t)
	convs := sqlite.NewConversationRepo(db)
	parts := sqlite.NewParticipantRepo(db)
	ctx := context.Background()

	users := seedUsers(t, db, "a", "b")
	name := "team"
	conv := &domain.Conversation{
		Type:     domain.ConversationGroup,
		Name:     &name,
		Settings: domain.DefaultGroupSettings(),
	}
	require.NoError(t, convs.CreateGroup(ctx, conv, users[0].ID, []int64{users[1].ID}))

	err := parts.TransferOwnership(ctx, conv.ID, users[0].ID, 9999)
	require.Error(t, err)

	// The failed transfer rolled back; the original owner still holds the group.
	p, err := parts.Get(ctx, conv.ID, users[0].ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, domain.RoleOwner, p.Role)
}

func TestFriendshipPairConstraint(t *testing.T) {
	db := openTestDB(t)
	repo := sqlite.NewFriendshipRepo(db)
	ctx := context.Background()

	users := seedUsers(t, db, "a", "b")

	f := &domain.Friendship{
		User1ID:     users[1].ID,
		User2ID:     users[0].ID,
		Status:      domain.FriendshipPending,
		RequesterID: users[1].ID,
	}
	require.NoError(t, repo.Create(ctx, f))

	// The reverse direction hits the same canonical row.
	dup := &domain.Friendship{
		User1ID:     users[0].ID,
		User2ID:     users[1].ID,
		Status:      domain.FriendshipPending,
		RequesterID: users[0].ID,
	}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrDuplicate)

	got, err := repo.Get(ctx, users[0].ID, users[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, users[1].ID, got.RequesterID)
}
