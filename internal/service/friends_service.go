package service

import (
	"context"
	"errors"

	"github.com/driftchat/realtime/internal/audit"
	"github.com/driftchat/realtime/internal/domain"
	"github.com/driftchat/realtime/internal/events"
	"github.com/driftchat/realtime/internal/repository"
)

var (
	ErrSelfRequest            = errors.New("you cannot add yourself as a friend")
	ErrAlreadyFriends         = errors.New("you are already friends with this user")
	ErrRequestAlreadySent     = errors.New("friend request already sent")
	ErrRequestAlreadyReceived = errors.New("this user has already sent you a friend request")
	ErrNotRequestReceiver     = errors.New("only the receiver can accept a friend request")
	ErrRequestNotPending      = errors.New("friend request is not pending")
)

type friendsService struct {
	friends repository.FriendshipRepository
	bus     *events.Bus
}

// NewFriendsService creates the friend-request lifecycle service. State
// changes are published on the bus; realtime delivery is the gateway's
// business, not this service's.
func NewFriendsService(friends repository.FriendshipRepository, bus *events.Bus) FriendsService {
	return &friendsService{friends: friends, bus: bus}
}

func (s *friendsService) SendRequest(ctx context.Context, senderID, receiverID string) (*domain.Friendship, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	existing, err := s.friends.GetPair(ctx, senderID, receiverID)
	if err != nil && !errors.Is(err, repository.ErrFriendshipNotFound) {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case domain.FriendStatusAccepted:
			return nil, ErrAlreadyFriends
		case domain.FriendStatusPending:
			if existing.UserID == senderID {
				return nil, ErrRequestAlreadySent
			}
			return nil, ErrRequestAlreadyReceived
		default:
			// A blocked or rejected pair does not bar a fresh request; the
			// stale row is discarded first so the pair stays unique.
			if err := s.friends.Delete(ctx, existing.ID); err != nil {
				return nil, err
			}
		}
	}

	f := &domain.Friendship{
		UserID:   senderID,
		FriendID: receiverID,
		Status:   domain.FriendStatusPending,
	}
	if err := s.friends.Create(ctx, f); err != nil {
		return nil, err
	}

	s.bus.Publish(events.FriendRequestCreated{SenderID: senderID, ReceiverID: receiverID})
	audit.LogWithDetail(ctx, audit.ActionFriendRequest, senderID, receiverID, "friend request sent")
	return f, nil
}

// RejectRequest discards a pending request addressed to userID. The tuple is
// deleted outright, so a later request between the pair starts fresh.
func (s *friendsService) RejectRequest(ctx context.Context, userID string, requestID uint) error {
	f, err := s.friends.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if f.FriendID != userID {
		return ErrNotRequestReceiver
	}
	if f.Status != domain.FriendStatusPending {
		return ErrRequestNotPending
	}

	if err := s.friends.Delete(ctx, f.ID); err != nil {
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionFriendReject, userID, f.UserID, "friend request rejected")
	return nil
}

func (s *friendsService) AcceptRequest(ctx context.Context, userID string, requestID uint) (*domain.Friendship, error) {
	f, err := s.friends.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if f.FriendID != userID {
		return nil, ErrNotRequestReceiver
	}
	if f.Status != domain.FriendStatusPending {
		return nil, ErrRequestNotPending
	}

	if err := s.friends.UpdateStatus(ctx, f.ID, domain.FriendStatusAccepted); err != nil {
		return nil, err
	}
	f.Status = domain.FriendStatusAccepted

	s.bus.Publish(events.FriendshipUpdated{UserA: f.UserID, UserB: f.FriendID})
	audit.LogWithDetail(ctx, audit.ActionFriendAccept, userID, f.UserID, "friend request accepted")
	return f, nil
}

func (s *friendsService) ListFriends(ctx context.Context, userID string) ([]string, error) {
	return s.friends.FriendIDs(ctx, userID)
}

func (s *friendsService) ListPending(ctx context.Context, userID string) ([]domain.Friendship, error) {
	return s.friends.PendingFor(ctx, userID)
}

var _ FriendsService = (*friendsService)(nil)
