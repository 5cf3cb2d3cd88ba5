package service

import (
	"context"
	"errors"
	"time"

	"github.com/driftchat/realtime/internal/audit"
	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/events"
	"github.com/driftchat/realtime/internal/hub"
	"github.com/driftchat/realtime/internal/registry"
	"github.com/driftchat/realtime/internal/repository"
	"github.com/driftchat/realtime/pkg/jwt"
	"github.com/driftchat/realtime/pkg/log"
)

type chatService struct {
	hub      *hub.Hub
	registry *registry.Registry
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	friends  repository.FriendshipRepository
	verifier TokenVerifier
}

// NewChatService wires the gateway. It subscribes to the event bus so
// social-graph changes reach live sessions without the friends code ever
// touching transport state.
func NewChatService(
	h *hub.Hub,
	reg *registry.Registry,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	friends repository.FriendshipRepository,
	verifier TokenVerifier,
	bus *events.Bus,
) ChatService {
	s := &chatService{
		hub:      h,
		registry: reg,
		convRepo: convRepo,
		msgRepo:  msgRepo,
		friends:  friends,
		verifier: verifier,
	}
	bus.Subscribe(s.handleBusEvent)
	return s
}

// HandleConnect authenticates the session and brings it online. On failure a
// typed auth_error is emitted and the connection closed; a half-authenticated
// session is never left registered.
func (s *chatService) HandleConnect(ctx context.Context, c *hub.Client, token string) error {
	userID, err := s.verifyToken(c, token)
	if err != nil {
		// The caller unregisters the client, which drains the queued
		// auth_error event and then closes the transport.
		audit.Log(ctx, audit.ActionAuthFailed, "", "connection rejected")
		return err
	}

	c.Session.Authenticate(userID)
	s.registry.Register(userID, c.ID)
	s.hub.JoinRoom(c, domain.UserRoom(userID))

	go s.notifyFriendsOfStatus(userID, true)

	audit.LogWithDetail(ctx, audit.ActionConnect, userID, c.ID, "client connected")
	return nil
}

func (s *chatService) verifyToken(c *hub.Client, token string) (string, error) {
	if token == "" {
		c.SendEvent(domain.NewEvent(domain.EventAuthError, &domain.AuthErrorPayload{
			Type:    domain.AuthErrorFailed,
			Message: "no authentication token provided",
		}))
		return "", domain.E(domain.KindUnauthenticated, "no token")
	}

	userID, err := s.verifier.Verify(token)
	if err == nil {
		return userID, nil
	}

	var payload domain.AuthErrorPayload
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		payload = domain.AuthErrorPayload{Type: domain.AuthErrorExpired, Message: "token expired - please refresh your session"}
	case errors.Is(err, jwt.ErrInvalidToken):
		payload = domain.AuthErrorPayload{Type: domain.AuthErrorInvalid, Message: "invalid token - please login again"}
	default:
		payload = domain.AuthErrorPayload{Type: domain.AuthErrorFailed, Message: "authentication failed - please login again"}
	}
	c.SendEvent(domain.NewEvent(domain.EventAuthError, &payload))
	return "", domain.Wrap(domain.KindUnauthenticated, "token verification failed", err)
}

// requireAuth guards every post-connect operation. An unauthenticated session
// slipping past connect is session-fatal: the client gets a typed auth error
// and the transport is closed without a registry entry ever existing.
func (s *chatService) requireAuth(c *hub.Client) bool {
	if c.Session.IsAuthenticated() {
		return true
	}
	c.SendEvent(domain.NewEvent(domain.EventAuthError, &domain.AuthErrorPayload{
		Type:    domain.AuthErrorFailed,
		Message: "not authenticated",
	}))
	c.Close()
	return false
}

func (s *chatService) HandleJoinConversation(ctx context.Context, c *hub.Client, conversationID string) error {
	if !s.requireAuth(c) {
		return domain.E(domain.KindUnauthenticated, "not authenticated")
	}
	userID := c.Session.UserID()

	if conversationID == "" {
		err := domain.E(domain.KindValidation, "conversationId is required")
		s.sendFailure(c, err, "")
		return err
	}

	conv, err := s.loadConversationFor(ctx, c, conversationID, userID)
	if err != nil {
		return err
	}

	s.hub.JoinRoom(c, domain.ConversationRoom(conv.ID))

	// Joining counts as reading: clear the backlog and tell the client its
	// badge for this peer is now zero.
	peer := conv.OtherParticipant(userID)
	if err := s.msgRepo.MarkRead(ctx, conv.ID, userID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("failed to mark messages read on join")
	} else if peer != "" {
		c.SendEvent(domain.NewEvent(domain.EventUnreadCountUpdate, &domain.UnreadCountUpdatePayload{
			FriendID:    peer,
			UnreadCount: 0,
			Timestamp:   time.Now(),
		}))
	}

	audit.LogWithDetail(ctx, audit.ActionJoin, userID, conv.ID, "joined conversation")
	return c.SendEvent(domain.NewEvent(domain.EventJoinedConversation, &domain.ConversationRefPayload{
		ConversationID: conv.ID,
	}))
}

func (s *chatService) HandleLeaveConversation(ctx context.Context, c *hub.Client, conversationID string) error {
	if !s.requireAuth(c) {
		return domain.E(domain.KindUnauthenticated, "not authenticated")
	}

	if conversationID == "" {
		err := domain.E(domain.KindValidation, "conversationId is required")
		s.sendFailure(c, err, "")
		return err
	}

	// Membership only; no persistence side effects.
	s.hub.LeaveRoom(c, domain.ConversationRoom(conversationID))

	audit.LogWithDetail(ctx, audit.ActionLeave, c.Session.UserID(), conversationID, "left conversation")
	return c.SendEvent(domain.NewEvent(domain.EventLeftConversation, &domain.ConversationRefPayload{
		ConversationID: conversationID,
	}))
}

func (s *chatService) HandleSendMessage(ctx context.Context, c *hub.Client, p domain.SendMessagePayload) error {
	if !s.requireAuth(c) {
		return domain.E(domain.KindUnauthenticated, "not authenticated")
	}

	if p.ConversationID == "" || p.Content == "" {
		err := domain.E(domain.KindValidation, "conversationId and content are required")
		s.sendFailure(c, err, "")
		return err
	}

	msg := &domain.Message{
		ConversationID: p.ConversationID,
		Content:        p.Content,
		Type:           domain.NormalizeMessageType(p.Type),
	}
	return s.persistAndFanout(ctx, c, msg)
}

func (s *chatService) HandleSendMediaMessage(ctx context.Context, c *hub.Client, p domain.SendMediaMessagePayload) error {
	if !s.requireAuth(c) {
		return domain.E(domain.KindUnauthenticated, "not authenticated")
	}

	if p.ConversationID == "" || p.FileURL == "" {
		err := domain.E(domain.KindValidation, "conversationId and fileUrl are required")
		s.sendFailure(c, err, "")
		return err
	}

	msg := &domain.Message{
		ConversationID:   p.ConversationID,
		Content:          p.FileURL,
		Type:             domain.NormalizeMessageType(p.Type),
		FileURL:          p.FileURL,
		OriginalFileName: p.OriginalFileName,
		FileSize:         p.FileSize,
		MimeType:         p.MimeType,
	}
	return s.persistAndFanout(ctx, c, msg)
}

// persistAndFanout runs the shared tail of both send paths: authorization,
// persistence, room broadcast, sender ack and the recipient's unread update.
func (s *chatService) persistAndFanout(ctx context.Context, c *hub.Client, msg *domain.Message) error {
	userID := c.Session.UserID()

	conv, err := s.loadConversationFor(ctx, c, msg.ConversationID, userID)
	if err != nil {
		return err
	}

	msg.SenderID = userID
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("failed to persist message")
		s.sendFailure(c, err, "failed to send message")
		return err
	}

	recipient := conv.OtherParticipant(userID)

	broadcast := domain.NewEvent(domain.EventNewMessage, &domain.NewMessagePayload{
		ID:               msg.ID,
		ConversationID:   conv.ID,
		SenderID:         userID,
		Content:          msg.Content,
		Type:             msg.Type,
		FileURL:          msg.FileURL,
		OriginalFileName: msg.OriginalFileName,
		FileSize:         msg.FileSize,
		MimeType:         msg.MimeType,
		Timestamp:        msg.CreatedAt,
	})
	if err := s.hub.BroadcastToRoom(domain.ConversationRoom(conv.ID), broadcast, c.ID); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("failed to broadcast message")
	}

	c.SendEvent(domain.NewEvent(domain.EventMessageSent, &domain.MessageSentPayload{
		ID:             msg.ID,
		ConversationID: conv.ID,
		Delivered:      recipient != "" && s.registry.IsOnline(recipient),
		Timestamp:      msg.CreatedAt,
	}))

	go s.pushUnreadCount(conv, userID, recipient)

	audit.LogWithDetail(ctx, audit.ActionSendMessage, userID, msg.ID, "message sent")
	return nil
}

// loadConversationFor fetches the conversation and enforces the participant
// gate, reporting not-found and forbidden back to the session.
func (s *chatService) loadConversationFor(ctx context.Context, c *hub.Client, conversationID, userID string) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			werr := domain.Wrap(domain.KindNotFound, "conversation not found", err)
			s.sendFailure(c, werr, "")
			return nil, werr
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldConversationID, conversationID).Msg("failed to load conversation")
		s.sendFailure(c, err, "failed to load conversation")
		return nil, err
	}

	if !conv.HasParticipant(userID) {
		werr := domain.E(domain.KindForbidden, "you are not a participant in this conversation")
		s.sendFailure(c, werr, "")
		return nil, werr
	}
	return conv, nil
}

func (s *chatService) HandleGetFriendStatus(ctx context.Context, c *hub.Client, friendID string) error {
	if !s.requireAuth(c) {
		return domain.E(domain.KindUnauthenticated, "not authenticated")
	}
	userID := c.Session.UserID()

	if friendID == "" {
		err := domain.E(domain.KindValidation, "friendId is required")
		s.sendFailure(c, err, "")
		return err
	}

	ok, err := s.friends.AreFriends(ctx, userID, friendID)
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldFriendID, friendID).Msg("failed to query friendship")
		s.sendFailure(c, err, "failed to get friend status")
		return err
	}
	if !ok {
		werr := domain.E(domain.KindForbidden, "you are not friends with this user")
		s.sendFailure(c, werr, "")
		return werr
	}

	return c.SendEvent(domain.NewEvent(domain.EventFriendStatusResponse, &domain.FriendStatusResponsePayload{
		FriendID:  friendID,
		IsOnline:  s.registry.IsOnline(friendID),
		Timestamp: time.Now(),
	}))
}

// HandleDisconnect tears down presence for the session. Removal happens only
// when this exact session still owns the registry entry, so a connection
// superseded by a newer one cannot mark the user offline.
func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	if !c.Session.IsAuthenticated() {
		return nil
	}
	userID := c.Session.UserID()

	if s.registry.RemoveSession(userID, c.ID) {
		go s.notifyFriendsOfStatus(userID, false)
	}

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldUserID, userID).
		Time("last_active_at", c.Session.LastActiveAt()).
		Msg("session closed")
	audit.LogWithDetail(ctx, audit.ActionDisconnect, userID, c.ID, "client disconnected")
	return nil
}

func (s *chatService) handleBusEvent(e events.Event) {
	switch ev := e.(type) {
	case events.FriendRequestCreated:
		err := s.hub.BroadcastToRoom(domain.UserRoom(ev.ReceiverID), domain.NewEvent(domain.EventRefreshFriendRequests, &domain.RefreshFriendRequestsPayload{
			Message: "friend request received",
			Sender:  ev.SenderID,
		}), "")
		if err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldUserID, ev.ReceiverID).Msg("failed to push friend request notification")
		}

	case events.FriendshipUpdated:
		for _, pair := range [][2]string{{ev.UserA, ev.UserB}, {ev.UserB, ev.UserA}} {
			err := s.hub.BroadcastToRoom(domain.UserRoom(pair[0]), domain.NewEvent(domain.EventFriendshipUpdated, &domain.FriendshipUpdatedPayload{
				FriendID: pair[1],
			}), "")
			if err != nil {
				l := log.L()
				l.Error().Err(err).Str(log.FieldUserID, pair[0]).Msg("failed to push friendship update")
			}
		}
	}
}

// sendFailure reports a failure back to the session as a typed error event.
// Unclassified errors surface only the generic message, never internals.
func (s *chatService) sendFailure(c *hub.Client, err error, generic string) {
	kind := domain.KindOf(err)
	if generic == "" {
		generic = "internal error"
	}
	c.SendEvent(domain.NewErrorEvent(errorCode(kind), domain.MessageOf(err, generic)))
}

func errorCode(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindUnauthenticated:
		return "UNAUTHORIZED"
	case domain.KindForbidden:
		return "FORBIDDEN"
	case domain.KindNotFound:
		return "NOT_FOUND"
	case domain.KindValidation:
		return "BAD_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}
