package domain

import (
	"encoding/json"
	"time"
)

// WebSocket events from client.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventSendMediaMessage  = "send_media_message"
	EventGetFriendStatus   = "get_friend_status"
)

// WebSocket events to client.
const (
	EventJoinedConversation    = "joined_conversation"
	EventLeftConversation      = "left_conversation"
	EventNewMessage            = "new_message"
	EventMessageSent           = "message_sent"
	EventFriendStatusResponse  = "friend_status_response"
	EventFriendStatusChange    = "friend_status_change"
	EventUnreadCountUpdate     = "unread_count_update"
	EventRefreshFriendRequests = "refresh_friend_requests"
	EventFriendshipUpdated     = "friendship_updated"
	EventAuthError             = "auth_error"
	EventError                 = "error"
)

// Auth error types.
const (
	AuthErrorExpired = "token_expired"
	AuthErrorInvalid = "invalid_token"
	AuthErrorFailed  = "auth_failed"
)

// Envelope frames every message on the wire: an event name plus its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutEnvelope is the server-side counterpart with a typed payload.
type OutEnvelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// NewEvent wraps a payload for sending.
func NewEvent(event string, data interface{}) *OutEnvelope {
	return &OutEnvelope{Event: event, Data: data}
}

// Client -> server payloads.

type JoinConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type LeaveConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
	Type           string `json:"type,omitempty"`
}

type SendMediaMessagePayload struct {
	ConversationID   string `json:"conversationId"`
	FileURL          string `json:"fileUrl"`
	Type             string `json:"type"`
	OriginalFileName string `json:"originalFileName"`
	FileSize         int64  `json:"fileSize"`
	MimeType         string `json:"mimeType"`
}

type GetFriendStatusPayload struct {
	FriendID string `json:"friendId"`
}

// Server -> client payloads.

type ConversationRefPayload struct {
	ConversationID string `json:"conversationId"`
}

type NewMessagePayload struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversationId"`
	SenderID         string    `json:"senderId"`
	Content          string    `json:"content"`
	Type             string    `json:"type"`
	FileURL          string    `json:"fileUrl,omitempty"`
	OriginalFileName string    `json:"originalFileName,omitempty"`
	FileSize         int64     `json:"fileSize,omitempty"`
	MimeType         string    `json:"mimeType,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type MessageSentPayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Delivered      bool      `json:"delivered"`
	Timestamp      time.Time `json:"timestamp"`
}

type FriendStatusResponsePayload struct {
	FriendID  string    `json:"friendId"`
	IsOnline  bool      `json:"isOnline"`
	Timestamp time.Time `json:"timestamp"`
}

type FriendStatusChangePayload struct {
	UserID    string    `json:"userId"`
	IsOnline  bool      `json:"isOnline"`
	Timestamp time.Time `json:"timestamp"`
}

type UnreadCountUpdatePayload struct {
	FriendID    string    `json:"friendId"`
	UnreadCount int64     `json:"unreadCount"`
	Timestamp   time.Time `json:"timestamp"`
}

type RefreshFriendRequestsPayload struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

type FriendshipUpdatedPayload struct {
	FriendID string `json:"friendId"`
}

type AuthErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewErrorEvent builds an error event from a classified failure.
func NewErrorEvent(code, message string) *OutEnvelope {
	return NewEvent(EventError, &ErrorPayload{Code: code, Message: message})
}

// UserRoom is the personal room every authenticated session auto-joins;
// user-directed events (presence, friend requests, unread counts) target it.
func UserRoom(userID string) string { return "user:" + userID }

// ConversationRoom is the multicast group for one conversation.
func ConversationRoom(conversationID string) string { return "conversation:" + conversationID }
