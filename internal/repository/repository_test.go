package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/pkg/database"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{Driver: "sqlite", FilePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db,
		&domain.Conversation{},
		&domain.Message{},
		&domain.Friendship{},
	))
	return db
}

func TestConversationRepo_GetOrCreate_OrderInsensitive(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormConversationRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()

	// Given first contact in one participant order
	first, err := repo.GetOrCreate(ctx, []string{alice, bob})
	req.NoError(err)
	req.NotEmpty(first.ID)
	req.ElementsMatch([]string{alice, bob}, []string(first.Participants))

	// When the other side resolves with the reversed order
	second, err := repo.GetOrCreate(ctx, []string{bob, alice})
	req.NoError(err)

	// Then both resolve to the same conversation
	req.Equal(first.ID, second.ID)
}

func TestConversationRepo_GetOrCreate_DistinctPairs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormConversationRepository(setupDB(t))
	alice := uuid.NewString()

	ab, err := repo.GetOrCreate(ctx, []string{alice, uuid.NewString()})
	req.NoError(err)
	ac, err := repo.GetOrCreate(ctx, []string{alice, uuid.NewString()})
	req.NoError(err)

	req.NotEqual(ab.ID, ac.ID)
}

func TestConversationRepo_GetByID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormConversationRepository(setupDB(t))

	created, err := repo.GetOrCreate(ctx, []string{uuid.NewString(), uuid.NewString()})
	req.NoError(err)

	got, err := repo.GetByID(ctx, created.ID)
	req.NoError(err)
	req.Equal(created.ID, got.ID)

	_, err = repo.GetByID(ctx, uuid.NewString())
	req.ErrorIs(err, ErrConversationNotFound)
}

func TestConversationRepo_IsParticipant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormConversationRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()

	conv, err := repo.GetOrCreate(ctx, []string{alice, bob})
	req.NoError(err)

	ok, err := repo.IsParticipant(ctx, conv.ID, alice)
	req.NoError(err)
	req.True(ok)

	ok, err = repo.IsParticipant(ctx, conv.ID, uuid.NewString())
	req.NoError(err)
	req.False(ok)

	_, err = repo.IsParticipant(ctx, uuid.NewString(), alice)
	req.ErrorIs(err, ErrConversationNotFound)
}

func TestConversationRepo_ListForUser(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormConversationRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()
	carol := uuid.NewString()

	ab, err := repo.GetOrCreate(ctx, []string{alice, bob})
	req.NoError(err)
	ac, err := repo.GetOrCreate(ctx, []string{alice, carol})
	req.NoError(err)
	_, err = repo.GetOrCreate(ctx, []string{bob, carol})
	req.NoError(err)

	convs, err := repo.ListForUser(ctx, alice)
	req.NoError(err)
	req.Len(convs, 2)
	ids := []string{convs[0].ID, convs[1].ID}
	req.ElementsMatch([]string{ab.ID, ac.ID}, ids)
}

func TestMessageRepo_CreateAndListOrdered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	db := setupDB(t)
	repo := NewGormMessageRepository(db)
	convID := uuid.NewString()
	alice := uuid.NewString()

	base := time.Now().Add(-time.Minute).Truncate(time.Second)
	for i, content := range []string{"first", "second", "third"} {
		msg := &domain.Message{
			ConversationID: convID,
			SenderID:       alice,
			Content:        content,
			Type:           domain.MessageTypeText,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		req.NoError(repo.Create(ctx, msg))
		req.NotEmpty(msg.ID)
	}

	msgs, err := repo.ListOrdered(ctx, convID)
	req.NoError(err)
	req.Len(msgs, 3)
	req.Equal("first", msgs[0].Content)
	req.Equal("second", msgs[1].Content)
	req.Equal("third", msgs[2].Content)
}

func TestMessageRepo_UnreadCountAndMarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormMessageRepository(setupDB(t))
	convID := uuid.NewString()
	alice := uuid.NewString()
	bob := uuid.NewString()

	// Given two unread messages from alice and one from bob
	for _, m := range []*domain.Message{
		{ConversationID: convID, SenderID: alice, Content: "hi", Type: domain.MessageTypeText},
		{ConversationID: convID, SenderID: alice, Content: "there", Type: domain.MessageTypeText},
		{ConversationID: convID, SenderID: bob, Content: "hey", Type: domain.MessageTypeText},
	} {
		req.NoError(repo.Create(ctx, m))
	}

	count, err := repo.UnreadCount(ctx, convID, alice)
	req.NoError(err)
	req.EqualValues(2, count)

	// When bob marks the conversation read
	req.NoError(repo.MarkRead(ctx, convID, bob))

	// Then alice's messages are read and bob's own stays untouched
	count, err = repo.UnreadCount(ctx, convID, alice)
	req.NoError(err)
	req.Zero(count)
	count, err = repo.UnreadCount(ctx, convID, bob)
	req.NoError(err)
	req.EqualValues(1, count)

	// MarkRead is idempotent
	req.NoError(repo.MarkRead(ctx, convID, bob))
}

func TestMessageRepo_MarkRead_ScopedToConversation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormMessageRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()
	convA := uuid.NewString()
	convB := uuid.NewString()

	req.NoError(repo.Create(ctx, &domain.Message{ConversationID: convA, SenderID: alice, Content: "a", Type: domain.MessageTypeText}))
	req.NoError(repo.Create(ctx, &domain.Message{ConversationID: convB, SenderID: alice, Content: "b", Type: domain.MessageTypeText}))

	req.NoError(repo.MarkRead(ctx, convA, bob))

	count, err := repo.UnreadCount(ctx, convB, alice)
	req.NoError(err)
	req.EqualValues(1, count)
}

func TestFriendshipRepo_AreFriends_Symmetric(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormFriendshipRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()

	req.NoError(repo.Create(ctx, &domain.Friendship{
		UserID:   alice,
		FriendID: bob,
		Status:   domain.FriendStatusAccepted,
	}))

	for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
		ok, err := repo.AreFriends(ctx, pair[0], pair[1])
		req.NoError(err)
		req.True(ok)
	}

	ok, err := repo.AreFriends(ctx, alice, uuid.NewString())
	req.NoError(err)
	req.False(ok)
}

func TestFriendshipRepo_PendingIsNotFriendship(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormFriendshipRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()

	req.NoError(repo.Create(ctx, &domain.Friendship{
		UserID:   alice,
		FriendID: bob,
		Status:   domain.FriendStatusPending,
	}))

	ok, err := repo.AreFriends(ctx, alice, bob)
	req.NoError(err)
	req.False(ok)
}

func TestFriendshipRepo_FriendIDs_EitherDirection(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormFriendshipRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()
	carol := uuid.NewString()
	dave := uuid.NewString()

	// alice sent to bob, carol sent to alice, dave is still pending
	req.NoError(repo.Create(ctx, &domain.Friendship{UserID: alice, FriendID: bob, Status: domain.FriendStatusAccepted}))
	req.NoError(repo.Create(ctx, &domain.Friendship{UserID: carol, FriendID: alice, Status: domain.FriendStatusAccepted}))
	req.NoError(repo.Create(ctx, &domain.Friendship{UserID: dave, FriendID: alice, Status: domain.FriendStatusPending}))

	ids, err := repo.FriendIDs(ctx, alice)
	req.NoError(err)
	req.ElementsMatch([]string{bob, carol}, ids)
}

func TestFriendshipRepo_GetPairAndLifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormFriendshipRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()

	_, err := repo.GetPair(ctx, alice, bob)
	req.ErrorIs(err, ErrFriendshipNotFound)

	f := &domain.Friendship{UserID: alice, FriendID: bob, Status: domain.FriendStatusPending}
	req.NoError(repo.Create(ctx, f))
	req.NotZero(f.ID)

	// GetPair answers in either direction
	got, err := repo.GetPair(ctx, bob, alice)
	req.NoError(err)
	req.Equal(f.ID, got.ID)

	req.NoError(repo.UpdateStatus(ctx, f.ID, domain.FriendStatusAccepted))
	got, err = repo.GetByID(ctx, f.ID)
	req.NoError(err)
	req.Equal(domain.FriendStatusAccepted, got.Status)

	req.ErrorIs(repo.UpdateStatus(ctx, f.ID+100, domain.FriendStatusAccepted), ErrFriendshipNotFound)

	req.NoError(repo.Delete(ctx, f.ID))
	_, err = repo.GetByID(ctx, f.ID)
	req.ErrorIs(err, ErrFriendshipNotFound)
}

func TestFriendshipRepo_PendingFor(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewGormFriendshipRepository(setupDB(t))
	alice := uuid.NewString()
	bob := uuid.NewString()
	carol := uuid.NewString()

	// bob and carol both asked alice; alice asked nobody
	req.NoError(repo.Create(ctx, &domain.Friendship{UserID: bob, FriendID: alice, Status: domain.FriendStatusPending}))
	req.NoError(repo.Create(ctx, &domain.Friendship{UserID: carol, FriendID: alice, Status: domain.FriendStatusPending}))
	req.NoError(repo.Create(ctx, &domain.Friendship{UserID: alice, FriendID: uuid.NewString(), Status: domain.FriendStatusAccepted}))

	pending, err := repo.PendingFor(ctx, alice)
	req.NoError(err)
	req.Len(pending, 2)
	senders := []string{pending[0].UserID, pending[1].UserID}
	req.ElementsMatch([]string{bob, carol}, senders)

	pending, err = repo.PendingFor(ctx, bob)
	req.NoError(err)
	req.Empty(pending)
}
