package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-backend/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestGetOrCreateDirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)

	t.Run("Self", func(t *testing.T) {
		_, err := env.convs.GetOrCreateDirect(ctx, alice.ID, alice.ID)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("UnknownTarget", func(t *testing.T) {
		_, err := env.convs.GetOrCreateDirect(ctx, alice.ID, 9999)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("NotFriends", func(t *testing.T) {
		_, err := env.convs.GetOrCreateDirect(ctx, alice.ID, carol.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("Idempotent", func(t *testing.T) {
		first, err := env.convs.GetOrCreateDirect(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ConversationOneToOne, first.Type)

		// Repeats from either side land on the same row.
		again, err := env.convs.GetOrCreateDirect(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)

		reversed, err := env.convs.GetOrCreateDirect(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, reversed.ID)

		assert.Equal(t, 1, env.countRows(t, `SELECT COUNT(*) FROM conversations`))
		assert.Equal(t, 2, env.countRows(t,
			`SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = ?`, first.ID))
	})
}

func TestCreateGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)

	t.Run("EmptyName", func(t *testing.T) {
		_, err := env.convs.CreateGroup(ctx, alice.ID, "", []int64{bob.ID})
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("NoMembers", func(t *testing.T) {
		_, err := env.convs.CreateGroup(ctx, alice.ID, "team", nil)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("NonFriendMember", func(t *testing.T) {
		_, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID, carol.ID})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
		// No partial creation.
		assert.Equal(t, 0, env.countRows(t, `SELECT COUNT(*) FROM conversations`))
	})

	t.Run("CreatorIsOwner", func(t *testing.T) {
		conv, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID, bob.ID, alice.ID})
		require.NoError(t, err)
		assert.Equal(t, domain.ConversationGroup, conv.Type)
		assert.Equal(t, domain.DefaultGroupSettings(), conv.Settings)

		owner, err := env.participants.Get(ctx, conv.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, owner)
		assert.Equal(t, domain.RoleOwner, owner.Role)

		member, err := env.participants.Get(ctx, conv.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, member)
		assert.Equal(t, domain.RoleMember, member.Role)

		// Duplicate ids and the creator's own id collapse.
		count, err := env.participants.Count(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	dave := env.createUser(t, "dave")
	env.makeFriends(t, alice, bob)
	env.makeFriends(t, bob, carol)

	conv, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID})
	require.NoError(t, err)

	t.Run("MemberInvitesOwnFriend", func(t *testing.T) {
		// carol is bob's friend, not alice's; any member may invite by default.
		_, err := env.convs.Invite(ctx, bob.ID, conv.ID, carol.ID)
		require.NoError(t, err)

		p, err := env.participants.Get(ctx, conv.ID, carol.ID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, domain.RoleMember, p.Role)
	})

	t.Run("InviteeMustBeActorFriend", func(t *testing.T) {
		_, err := env.convs.Invite(ctx, alice.ID, conv.ID, dave.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("ReinviteIsNoop", func(t *testing.T) {
		_, err := env.convs.Invite(ctx, bob.ID, conv.ID, carol.ID)
		require.NoError(t, err)
		count, err := env.participants.Count(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("OnlyOwnerCanInviteFlag", func(t *testing.T) {
		_, err := env.convs.UpdateSettings(ctx, alice.ID, conv.ID, nil,
			domain.GroupSettingsPatch{OnlyOwnerCanInvite: boolPtr(true)})
		require.NoError(t, err)

		_, err = env.convs.Invite(ctx, bob.ID, conv.ID, carol.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("NonParticipant", func(t *testing.T) {
		_, err := env.convs.Invite(ctx, dave.ID, conv.ID, alice.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})
}

func TestRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)
	env.makeFriends(t, alice, carol)

	conv, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID, carol.ID})
	require.NoError(t, err)

	t.Run("MemberCannotKickByDefault", func(t *testing.T) {
		err := env.convs.Remove(ctx, bob.ID, conv.ID, carol.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("OwnerCannotBeTarget", func(t *testing.T) {
		err := env.convs.Remove(ctx, alice.ID, conv.ID, alice.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("OwnerKicks", func(t *testing.T) {
		require.NoError(t, env.convs.Remove(ctx, alice.ID, conv.ID, carol.ID))

		p, err := env.participants.Get(ctx, conv.ID, carol.ID)
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("TargetNotParticipant", func(t *testing.T) {
		err := env.convs.Remove(ctx, alice.ID, conv.ID, carol.ID)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("AnyMemberWhenFlagCleared", func(t *testing.T) {
		_, err := env.convs.Invite(ctx, alice.ID, conv.ID, carol.ID)
		require.NoError(t, err)
		_, err = env.convs.UpdateSettings(ctx, alice.ID, conv.ID, nil,
			domain.GroupSettingsPatch{OnlyOwnerCanKick: boolPtr(false)})
		require.NoError(t, err)

		require.NoError(t, env.convs.Remove(ctx, bob.ID, conv.ID, carol.ID))
	})
}

func TestLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)
	env.makeFriends(t, alice, carol)

	t.Run("MemberLeaves", func(t *testing.T) {
		conv, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID, carol.ID})
		require.NoError(t, err)

		require.NoError(t, env.convs.Leave(ctx, bob.ID, conv.ID, nil))
		count, err := env.participants.Count(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("OwnerNeedsSuccessor", func(t *testing.T) {
		conv, err := env.convs.CreateGroup(ctx, alice.ID, "squad", []int64{bob.ID})
		require.NoError(t, err)

		err = env.convs.Leave(ctx, alice.ID, conv.ID, nil)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))

		err = env.convs.Leave(ctx, alice.ID, conv.ID, &alice.ID)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))

		err = env.convs.Leave(ctx, alice.ID, conv.ID, &carol.ID)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("OwnershipTransfers", func(t *testing.T) {
		conv, err := env.convs.CreateGroup(ctx, alice.ID, "crew", []int64{bob.ID})
		require.NoError(t, err)

		require.NoError(t, env.convs.Leave(ctx, alice.ID, conv.ID, &bob.ID))

		p, err := env.participants.Get(ctx, conv.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, domain.RoleOwner, p.Role)

		gone, err := env.participants.Get(ctx, conv.ID, alice.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		assert.Equal(t, 1, env.countRows(t,
			`SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = ? AND role = 'OWNER'`, conv.ID))
	})

	t.Run("LastParticipantDissolvesGroup", func(t *testing.T) {
		conv, err := env.convs.CreateGroup(ctx, alice.ID, "solo", []int64{bob.ID})
		require.NoError(t, err)
		_, err = env.msgs.Send(ctx, alice.ID, conv.ID, "hello")
		require.NoError(t, err)

		require.NoError(t, env.convs.Leave(ctx, bob.ID, conv.ID, nil))
		require.NoError(t, env.convs.Leave(ctx, alice.ID, conv.ID, nil))

		got, err := env.conversations.GetByID(ctx, conv.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 0, env.countRows(t,
			`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conv.ID))
		assert.Equal(t, 0, env.countRows(t,
			`SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = ?`, conv.ID))
	})
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.makeFriends(t, alice, bob)

	conv, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID})
	require.NoError(t, err)

	t.Run("Rename", func(t *testing.T) {
		got, err := env.convs.UpdateSettings(ctx, bob.ID, conv.ID, strPtr("renamed"), domain.GroupSettingsPatch{})
		require.NoError(t, err)
		require.NotNil(t, got.Name)
		assert.Equal(t, "renamed", *got.Name)
	})

	t.Run("EmptyName", func(t *testing.T) {
		_, err := env.convs.UpdateSettings(ctx, alice.ID, conv.ID, strPtr(""), domain.GroupSettingsPatch{})
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("EditLockIsItselfAFlag", func(t *testing.T) {
		_, err := env.convs.UpdateSettings(ctx, alice.ID, conv.ID, nil,
			domain.GroupSettingsPatch{OnlyOwnerCanEdit: boolPtr(true)})
		require.NoError(t, err)

		_, err = env.convs.UpdateSettings(ctx, bob.ID, conv.ID, strPtr("nope"), domain.GroupSettingsPatch{})
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))

		got, err := env.convs.UpdateSettings(ctx, alice.ID, conv.ID, nil,
			domain.GroupSettingsPatch{OnlyOwnerCanEdit: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, got.Settings.OnlyOwnerCanEdit)
	})
}

func TestPinnedSorting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	dave := env.createUser(t, "dave")
	env.makeFriends(t, alice, bob)
	env.makeFriends(t, alice, carol)
	env.makeFriends(t, alice, dave)

	older, err := env.convs.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	newer, err := env.convs.GetOrCreateDirect(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	pinned, err := env.convs.GetOrCreateDirect(ctx, alice.ID, dave.ID)
	require.NoError(t, err)

	_, err = env.msgs.Send(ctx, bob.ID, older.ID, "first")
	require.NoError(t, err)
	_, err = env.msgs.Send(ctx, carol.ID, newer.ID, "second")
	require.NoError(t, err)

	t.Run("PinnedFirstThenRecency", func(t *testing.T) {
		require.NoError(t, env.convs.SetPinned(ctx, alice.ID, pinned.ID, true))
		// Pinning twice is a no-op.
		require.NoError(t, env.convs.SetPinned(ctx, alice.ID, pinned.ID, true))

		list, err := env.convs.List(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, pinned.ID, list[0].ID)
		assert.Equal(t, newer.ID, list[1].ID)
		assert.Equal(t, older.ID, list[2].ID)
		assert.NotNil(t, list[0].PinnedAt)
	})

	t.Run("PinIsPerConversationNotPerViewer", func(t *testing.T) {
		// dave shares the pinned conversation and sees it first too.
		list, err := env.convs.List(ctx, dave.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, pinned.ID, list[0].ID)
	})

	t.Run("UnpinRestoresRecencyOrder", func(t *testing.T) {
		require.NoError(t, env.convs.SetPinned(ctx, alice.ID, pinned.ID, false))

		list, err := env.convs.List(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
		// No messages yet sorts last.
		assert.Equal(t, pinned.ID, list[2].ID)
	})

	t.Run("NonParticipantCannotPin", func(t *testing.T) {
		err := env.convs.SetPinned(ctx, bob.ID, pinned.ID, true)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})
}

func TestGetConversationDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)
	env.makeFriends(t, bob, carol)

	conv, err := env.convs.CreateGroup(ctx, alice.ID, "team", []int64{bob.ID})
	require.NoError(t, err)
	// carol joins through bob; she is not alice's friend.
	_, err = env.convs.Invite(ctx, bob.ID, conv.ID, carol.ID)
	require.NoError(t, err)

	t.Run("IsFriendIsViewerRelative", func(t *testing.T) {
		detail, err := env.convs.Get(ctx, alice.ID, conv.ID)
		require.NoError(t, err)
		require.Len(t, detail.Participants, 3)

		friends := map[int64]bool{}
		for _, p := range detail.Participants {
			friends[p.User.ID] = p.IsFriend
		}
		assert.False(t, friends[alice.ID])
		assert.True(t, friends[bob.ID])
		assert.False(t, friends[carol.ID])
	})

	t.Run("NonParticipant", func(t *testing.T) {
		outsider := env.createUser(t, "eve")
		_, err := env.convs.Get(ctx, outsider.ID, conv.ID)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		_, err := env.convs.Get(ctx, alice.ID, 9999)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})
}
