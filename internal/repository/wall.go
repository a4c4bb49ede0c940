package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
)

// IWallRepository defines the interface for the photo wall
type IWallRepository interface {
	CreatePhoto(ctx context.Context, photo *model.WallPhoto) error
	FindPhotoByID(ctx context.Context, id string) (*model.WallPhoto, error)
	ListByGroup(ctx context.Context, groupID string, limit int) ([]*model.WallPhoto, error)
	// ToggleLike likes the photo for the user, or removes the like if it
	// already exists. Reports whether the photo is liked afterwards.
	ToggleLike(ctx context.Context, photoID, userID string) (bool, error)
}

// WallRepository implements IWallRepository interface
type WallRepository struct {
	db *gorm.DB
}

// NewWallRepository creates a new IWallRepository instance
func NewWallRepository(db *gorm.DB) IWallRepository {
	return &WallRepository{db: db}
}

func (r *WallRepository) CreatePhoto(ctx context.Context, photo *model.WallPhoto) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *WallRepository) FindPhotoByID(ctx context.Context, id string) (*model.WallPhoto, error) {
	var photo model.WallPhoto
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *WallRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]*model.WallPhoto, error) {
	var photos []*model.WallPhoto
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&photos).Error
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *WallRepository) ToggleLike(ctx context.Context, photoID, userID string) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.WallPhotoLike
		err := tx.Where("wall_photo_id = ? AND user_id = ?", photoID, userID).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			liked = false
			return tx.Model(&model.WallPhoto{}).
				Where("id = ?", photoID).
				Update("likes_count", gorm.Expr("likes_count - 1")).Error
		case err == gorm.ErrRecordNotFound:
			like := &model.WallPhotoLike{
				ID:          uuid.New().String(),
				WallPhotoID: photoID,
				UserID:      userID,
			}
			if err := tx.Create(like).Error; err != nil {
				return err
			}
			liked = true
			return tx.Model(&model.WallPhoto{}).
				Where("id = ?", photoID).
				Update("likes_count", gorm.Expr("likes_count + 1")).Error
		default:
			return err
		}
	})
	return liked, err
}
