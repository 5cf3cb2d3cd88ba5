package service

import (
	"context"

	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/hub"
)

// TokenVerifier is the credential-verification collaborator: it maps a bearer
// token to a user id or fails with jwt.ErrExpiredToken, jwt.ErrInvalidToken
// or an unclassified error.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// ChatService orchestrates the realtime protocol: session authentication,
// room membership, message persistence and best-effort fanout.
type ChatService interface {
	HandleConnect(ctx context.Context, client *hub.Client, token string) error
	HandleJoinConversation(ctx context.Context, client *hub.Client, conversationID string) error
	HandleLeaveConversation(ctx context.Context, client *hub.Client, conversationID string) error
	HandleSendMessage(ctx context.Context, client *hub.Client, p domain.SendMessagePayload) error
	HandleSendMediaMessage(ctx context.Context, client *hub.Client, p domain.SendMediaMessagePayload) error
	HandleGetFriendStatus(ctx context.Context, client *hub.Client, friendID string) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
}

// FriendsService carries the friend-request lifecycle for the HTTP surface
// and raises the matching bus events.
type FriendsService interface {
	SendRequest(ctx context.Context, senderID, receiverID string) (*domain.Friendship, error)
	AcceptRequest(ctx context.Context, userID string, requestID uint) (*domain.Friendship, error)
	RejectRequest(ctx context.Context, userID string, requestID uint) error
	ListFriends(ctx context.Context, userID string) ([]string, error)
	ListPending(ctx context.Context, userID string) ([]domain.Friendship, error)
}
