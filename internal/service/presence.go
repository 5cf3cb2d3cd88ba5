package service

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/pkg/log"
)

// notifyFriendsOfStatus pushes a presence-changed event to every friend who
// is online right now. Best-effort relative to the connect/disconnect
// transition that triggered it: a persistence failure degrades to an empty
// peer set and a log line, never an error for the session.
func (s *chatService) notifyFriendsOfStatus(userID string, isOnline bool) {
	ctx := context.Background()

	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to fetch friend ids for presence fanout")
		return
	}

	onlineFriends := lo.Filter(friendIDs, func(id string, _ int) bool {
		return s.registry.IsOnline(id)
	})
	if len(onlineFriends) == 0 {
		return
	}

	event := domain.NewEvent(domain.EventFriendStatusChange, &domain.FriendStatusChangePayload{
		UserID:    userID,
		IsOnline:  isOnline,
		Timestamp: time.Now(),
	})

	for _, friendID := range onlineFriends {
		if err := s.hub.BroadcastToRoom(domain.UserRoom(friendID), event, ""); err != nil {
			l := log.L()
			l.Error().Err(err).Str(log.FieldFriendID, friendID).Msg("failed to push presence update")
		}
	}
}

// pushUnreadCount closes the unread loop after a send. A recipient actively
// viewing the conversation has it marked read immediately, without waiting
// for a client read-receipt; either way the recipient's badge counter gets a
// fresh value on their personal room.
func (s *chatService) pushUnreadCount(conv *domain.Conversation, senderID, recipientID string) {
	if recipientID == "" {
		return
	}
	ctx := context.Background()
	room := domain.ConversationRoom(conv.ID)

	if sessionID, ok := s.registry.SessionID(recipientID); ok {
		if rc, ok := s.hub.Client(sessionID); ok && rc.Session.InRoom(room) {
			if err := s.msgRepo.MarkRead(ctx, conv.ID, recipientID); err != nil {
				l := log.L()
				l.Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("failed to mark viewed message read")
			}
		}
	}

	count, err := s.msgRepo.UnreadCount(ctx, conv.ID, senderID)
	if err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldConversationID, conv.ID).Msg("failed to compute unread count")
		return
	}

	event := domain.NewEvent(domain.EventUnreadCountUpdate, &domain.UnreadCountUpdatePayload{
		FriendID:    senderID,
		UnreadCount: count,
		Timestamp:   time.Now(),
	})
	if err := s.hub.BroadcastToRoom(domain.UserRoom(recipientID), event, ""); err != nil {
		l := log.L()
		l.Error().Err(err).Str(log.FieldUserID, recipientID).Msg("failed to push unread count")
	}
}
