package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/driftchat/realtime/internal/domain"
)

// GormFriendshipRepository implements FriendshipRepository using GORM.
type GormFriendshipRepository struct {
	db *gorm.DB
}

func NewGormFriendshipRepository(db *gorm.DB) *GormFriendshipRepository {
	return &GormFriendshipRepository{db: db}
}

func (r *GormFriendshipRepository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Friendship{}).
		Where("status = ?", domain.FriendStatusAccepted).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormFriendshipRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []domain.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.FriendStatusAccepted).
		Where("user_id = ? OR friend_id = ?", userID, userID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		if f.UserID == userID {
			ids = append(ids, f.FriendID)
		} else {
			ids = append(ids, f.UserID)
		}
	}
	return ids, nil
}

func (r *GormFriendshipRepository) GetPair(ctx context.Context, a, b string) (*domain.Friendship, error) {
	var f domain.Friendship
	err := r.db.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a).
		First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *GormFriendshipRepository) GetByID(ctx context.Context, id uint) (*domain.Friendship, error) {
	var f domain.Friendship
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *GormFriendshipRepository) Create(ctx context.Context, f *domain.Friendship) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *GormFriendshipRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&domain.Friendship{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFriendshipNotFound
	}
	return nil
}

func (r *GormFriendshipRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Friendship{}, id).Error
}

func (r *GormFriendshipRepository) PendingFor(ctx context.Context, userID string) ([]domain.Friendship, error) {
	var rows []domain.Friendship
	err := r.db.WithContext(ctx).
		Where("friend_id = ? AND status = ?", userID, domain.FriendStatusPending).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

var _ FriendshipRepository = (*GormFriendshipRepository)(nil)
