package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ping-backend/internal/domain"
)

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)

	conv, err := env.convs.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		msg, err := env.msgs.Send(ctx, alice.ID, conv.ID, "hello bob")
		require.NoError(t, err)
		assert.Equal(t, domain.MessageText, msg.Type)
		assert.Equal(t, domain.MessageSent, msg.Status)
		require.NotNil(t, msg.Sender)
		assert.Equal(t, alice.ID, msg.Sender.ID)
	})

	t.Run("BlankContent", func(t *testing.T) {
		_, err := env.msgs.Send(ctx, alice.ID, conv.ID, "   \n\t")
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("ContentTooLong", func(t *testing.T) {
		_, err := env.msgs.Send(ctx, alice.ID, conv.ID, strings.Repeat("x", 5001))
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("NonParticipant", func(t *testing.T) {
		_, err := env.msgs.Send(ctx, carol.ID, conv.ID, "let me in")
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})

	t.Run("UnknownConversation", func(t *testing.T) {
		_, err := env.msgs.Send(ctx, alice.ID, 9999, "hello?")
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})
}

func TestListPage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	env.makeFriends(t, alice, bob)

	conv, err := env.convs.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for i := 1; i <= 25; i++ {
		_, err := env.msgs.Send(ctx, alice.ID, conv.ID, fmt.Sprintf("msg-%d", i))
		require.NoError(t, err)
	}

	t.Run("PagesDoNotOverlap", func(t *testing.T) {
		first, err := env.msgs.ListPage(ctx, bob.ID, conv.ID, "", 0)
		require.NoError(t, err)
		require.Len(t, first.Messages, 20)
		require.NotEmpty(t, first.NextCursor)
		// Newest first.
		assert.Equal(t, "msg-25", first.Messages[0].Content)
		assert.Equal(t, "msg-6", first.Messages[19].Content)

		second, err := env.msgs.ListPage(ctx, bob.ID, conv.ID, first.NextCursor, 0)
		require.NoError(t, err)
		require.Len(t, second.Messages, 5)
		assert.Empty(t, second.NextCursor)
		assert.Equal(t, "msg-5", second.Messages[0].Content)
		assert.Equal(t, "msg-1", second.Messages[4].Content)

		seen := map[int64]struct{}{}
		for _, m := range append(first.Messages, second.Messages...) {
			_, dup := seen[m.ID]
			assert.False(t, dup, "message %d returned twice", m.ID)
			seen[m.ID] = struct{}{}
		}
	})

	t.Run("LimitIsCapped", func(t *testing.T) {
		page, err := env.msgs.ListPage(ctx, bob.ID, conv.ID, "", 1000)
		require.NoError(t, err)
		assert.Len(t, page.Messages, 25)
	})

	t.Run("InvalidCursor", func(t *testing.T) {
		_, err := env.msgs.ListPage(ctx, bob.ID, conv.ID, "not a cursor!", 0)
		assert.Equal(t, domain.CodeBadRequest, domain.CodeOf(err))
	})

	t.Run("NonParticipant", func(t *testing.T) {
		_, err := env.msgs.ListPage(ctx, carol.ID, conv.ID, "", 0)
		assert.Equal(t, domain.CodeForbidden, domain.CodeOf(err))
	})
}
