package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
)

type INotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByGroup(ctx context.Context, groupID string, limit int) ([]*model.Notification, error)
}

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) INotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}
