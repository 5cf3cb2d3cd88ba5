package repository

import (
	"context"
	"errors"

	"github.com/driftchat/realtime/internal/domain"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrFriendshipNotFound   = errors.New("friendship not found")
)

// ConversationRepository persists conversations keyed by their normalized
// participant set.
type ConversationRepository interface {
	// GetOrCreate resolves the conversation for a participant set, creating
	// it on first contact. Input order is irrelevant.
	GetOrCreate(ctx context.Context, participantIDs []string) (*domain.Conversation, error)
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	// IsParticipant is the sole authorization gate for message operations.
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error)
}

// MessageRepository is a thin persistence boundary; authorization happens in
// the callers.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListOrdered returns a conversation's messages by creation time ascending.
	ListOrdered(ctx context.Context, conversationID string) ([]domain.Message, error)
	// MarkRead flips read=true on every message in the conversation authored
	// by someone other than readerID. Idempotent.
	MarkRead(ctx context.Context, conversationID, readerID string) error
	// UnreadCount counts unread messages authored by senderID.
	UnreadCount(ctx context.Context, conversationID, senderID string) (int64, error)
}

// FriendshipRepository answers the social-graph queries the gateway needs and
// persists the request lifecycle for the HTTP surface.
type FriendshipRepository interface {
	// AreFriends is symmetric: (a,b) and (b,a) answer identically.
	AreFriends(ctx context.Context, a, b string) (bool, error)
	// FriendIDs returns a point-in-time snapshot of userID's accepted peers.
	FriendIDs(ctx context.Context, userID string) ([]string, error)
	// GetPair finds the single record for an unordered pair, in either
	// creation direction.
	GetPair(ctx context.Context, a, b string) (*domain.Friendship, error)
	GetByID(ctx context.Context, id uint) (*domain.Friendship, error)
	Create(ctx context.Context, f *domain.Friendship) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
	// PendingFor lists requests awaiting userID's decision.
	PendingFor(ctx context.Context, userID string) ([]domain.Friendship, error)
}
