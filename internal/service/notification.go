package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
	"github.com/Gopher0727/StreakChat/internal/repository"
)

const notificationPageSize = 50

// INotificationService defines the interface for notification history
type INotificationService interface {
	GetNotifications(ctx context.Context, groupID string) ([]*model.Notification, error)
}

// NotificationService implements the INotificationService interface
type NotificationService struct {
	notificationRepo repository.INotificationRepository
	groupRepo        repository.IGroupRepository
}

// NewNotificationService creates a new INotificationService instance
func NewNotificationService(notificationRepo repository.INotificationRepository, groupRepo repository.IGroupRepository) INotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		groupRepo:        groupRepo,
	}
}

// GetNotifications returns the most recent notifications recorded for the group
func (s *NotificationService) GetNotifications(ctx context.Context, groupID string) ([]*model.Notification, error) {
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	notifications, err := s.notificationRepo.ListByGroup(ctx, groupID, notificationPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
