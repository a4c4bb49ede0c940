package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
	"github.com/Gopher0727/StreakChat/internal/repository"
)

var ErrWallPhotoNotFound = errors.New("wall photo not found")

// wallPageSize caps how many photos the wall screen loads at once
const wallPageSize = 50

// IWallService defines the interface for the photo wall
type IWallService interface {
	GetWall(ctx context.Context, groupID string) ([]*model.WallPhoto, error)
	ToggleLike(ctx context.Context, userID, photoID string) (bool, error)
}

// WallService implements the IWallService interface
type WallService struct {
	wallRepo  repository.IWallRepository
	groupRepo repository.IGroupRepository
}

// NewWallService creates a new IWallService instance
func NewWallService(wallRepo repository.IWallRepository, groupRepo repository.IGroupRepository) IWallService {
	return &WallService{
		wallRepo:  wallRepo,
		groupRepo: groupRepo,
	}
}

// GetWall returns the latest photos shared in the group
func (s *WallService) GetWall(ctx context.Context, groupID string) ([]*model.WallPhoto, error) {
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	photos, err := s.wallRepo.ListByGroup(ctx, groupID, wallPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list wall photos: %w", err)
	}
	return photos, nil
}

// ToggleLike likes or unlikes the photo for the user, reporting the new state
func (s *WallService) ToggleLike(ctx context.Context, userID, photoID string) (bool, error) {
	if _, err := s.wallRepo.FindPhotoByID(ctx, photoID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrWallPhotoNotFound
		}
		return false, fmt.Errorf("failed to find wall photo: %w", err)
	}

	liked, err := s.wallRepo.ToggleLike(ctx, photoID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}
	return liked, nil
}
