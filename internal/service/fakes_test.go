package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/repository"
	"github.com/driftchat/realtime/pkg/database"
	"github.com/driftchat/realtime/pkg/jwt"
)

// fakeVerifier maps known tokens to user ids; unknown tokens are invalid and
// tokens listed in expired fail as expired.
type fakeVerifier struct {
	users   map[string]string
	expired map[string]bool
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		users:   make(map[string]string),
		expired: make(map[string]bool),
	}
}

func (f *fakeVerifier) Verify(token string) (string, error) {
	if f.expired[token] {
		return "", jwt.ErrExpiredToken
	}
	if id, ok := f.users[token]; ok {
		return id, nil
	}
	return "", jwt.ErrInvalidToken
}

type fakeConversationRepo struct {
	mu    sync.Mutex
	convs map[string]*domain.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[string]*domain.Conversation)}
}

func (f *fakeConversationRepo) add(participants ...string) *domain.Conversation {
	conv := &domain.Conversation{
		ID:             uuid.NewString(),
		Participants:   database.StringArray(domain.NormalizeParticipants(participants)),
		ParticipantKey: domain.ParticipantKey(participants),
	}
	f.mu.Lock()
	f.convs[conv.ID] = conv
	f.mu.Unlock()
	return conv
}

func (f *fakeConversationRepo) GetOrCreate(_ context.Context, participantIDs []string) (*domain.Conversation, error) {
	key := domain.ParticipantKey(participantIDs)
	f.mu.Lock()
	for _, c := range f.convs {
		if c.ParticipantKey == key {
			f.mu.Unlock()
			return c, nil
		}
	}
	f.mu.Unlock()
	return f.add(participantIDs...), nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id string) (*domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.convs[id]; ok {
		return c, nil
	}
	return nil, repository.ErrConversationNotFound
}

func (f *fakeConversationRepo) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	c, err := f.GetByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return c.HasParticipant(userID), nil
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, userID string) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conversation
	for _, c := range f.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []*domain.Message
	createErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	stored := *msg
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeMessageRepo) ListOrdered(_ context.Context, conversationID string) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, conversationID, readerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.SenderID != readerID {
			m.Read = true
		}
	}
	return nil
}

func (f *fakeMessageRepo) UnreadCount(_ context.Context, conversationID, senderID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.SenderID == senderID && !m.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeMessageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fakeFriendshipRepo struct {
	mu   sync.Mutex
	rows map[uint]*domain.Friendship
	next uint
}

func newFakeFriendshipRepo() *fakeFriendshipRepo {
	return &fakeFriendshipRepo{rows: make(map[uint]*domain.Friendship)}
}

func (f *fakeFriendshipRepo) seed(userID, friendID, status string) *domain.Friendship {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	row := &domain.Friendship{ID: f.next, UserID: userID, FriendID: friendID, Status: status}
	f.rows[row.ID] = row
	out := *row
	return &out
}

func (f *fakeFriendshipRepo) AreFriends(_ context.Context, a, b string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Status != domain.FriendStatusAccepted {
			continue
		}
		if (r.UserID == a && r.FriendID == b) || (r.UserID == b && r.FriendID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFriendshipRepo) FriendIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, r := range f.rows {
		if r.Status != domain.FriendStatusAccepted {
			continue
		}
		switch userID {
		case r.UserID:
			ids = append(ids, r.FriendID)
		case r.FriendID:
			ids = append(ids, r.UserID)
		}
	}
	return ids, nil
}

func (f *fakeFriendshipRepo) GetPair(_ context.Context, a, b string) (*domain.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if (r.UserID == a && r.FriendID == b) || (r.UserID == b && r.FriendID == a) {
			out := *r
			return &out, nil
		}
	}
	return nil, repository.ErrFriendshipNotFound
}

func (f *fakeFriendshipRepo) GetByID(_ context.Context, id uint) (*domain.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		out := *r
		return &out, nil
	}
	return nil, repository.ErrFriendshipNotFound
}

func (f *fakeFriendshipRepo) Create(_ context.Context, fr *domain.Friendship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	fr.ID = f.next
	stored := *fr
	f.rows[fr.ID] = &stored
	return nil
}

func (f *fakeFriendshipRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return repository.ErrFriendshipNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeFriendshipRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeFriendshipRepo) PendingFor(_ context.Context, userID string) ([]domain.Friendship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Friendship
	for _, r := range f.rows {
		if r.FriendID == userID && r.Status == domain.FriendStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

var (
	_ repository.ConversationRepository = (*fakeConversationRepo)(nil)
	_ repository.MessageRepository      = (*fakeMessageRepo)(nil)
	_ repository.FriendshipRepository   = (*fakeFriendshipRepo)(nil)
)
