package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/driftchat/realtime/internal/domain"
)

// GormConversationRepository implements ConversationRepository using GORM.
type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// GetOrCreate normalizes the participant set, looks up by participant_key and
// creates on miss. The unique index on participant_key is the arbiter under
// concurrent first contact: a duplicate-key failure means the other side won
// the race, so the existing row is re-fetched instead of failing.
func (r *GormConversationRepository) GetOrCreate(ctx context.Context, participantIDs []string) (*domain.Conversation, error) {
	participants := domain.NormalizeParticipants(participantIDs)
	key := domain.ParticipantKey(participants)

	var conv domain.Conversation
	err := r.db.WithContext(ctx).Where("participant_key = ?", key).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = domain.Conversation{
		Participants:   participants,
		ParticipantKey: key,
	}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing domain.Conversation
			if ferr := r.db.WithContext(ctx).Where("participant_key = ?", key).First(&existing).Error; ferr != nil {
				return nil, ferr
			}
			return &existing, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *GormConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *GormConversationRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	conv, err := r.GetByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

// ListForUser returns every conversation the user belongs to, most recently
// updated first. Participant ids are opaque uuids stored as a quoted JSON
// array, so a quoted LIKE match cannot hit a partial id.
func (r *GormConversationRepository) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	pattern := fmt.Sprintf(`%%"%s"%%`, userID)
	err := r.db.WithContext(ctx).
		Where("participants LIKE ?", pattern).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

var _ ConversationRepository = (*GormConversationRepository)(nil)
