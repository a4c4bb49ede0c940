package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Gopher0727/StreakChat/internal/model"
)

// IStreakRepository defines the interface for streak record operations
type IStreakRepository interface {
	FindByGroup(ctx context.Context, groupID string) (*model.Streak, error)
	// UpdateWithLock runs fn against the group's streak row inside a
	// transaction that holds a row-level lock, so concurrent recomputes
	// for the same group serialize. fn reports whether the row should be
	// written back. Returns gorm.ErrRecordNotFound for unknown groups.
	UpdateWithLock(ctx context.Context, groupID string, fn func(s *model.Streak) (bool, error)) error
}

// IContributionRepository defines the interface for daily contribution markers
type IContributionRepository interface {
	// InsertIfAbsent inserts the contribution unless a row for the same
	// (group, user, date) already exists. Reports whether a row was created.
	InsertIfAbsent(ctx context.Context, c *model.Contribution) (bool, error)
	CountForDate(ctx context.Context, groupID string, date time.Time) (int64, error)
	ListUserIDsForDate(ctx context.Context, groupID string, date time.Time) ([]string, error)
}

// StreakRepository implements IStreakRepository interface
type StreakRepository struct {
	db *gorm.DB
}

// NewStreakRepository creates a new IStreakRepository instance
func NewStreakRepository(db *gorm.DB) IStreakRepository {
	return &StreakRepository{db: db}
}

func (r *StreakRepository) FindByGroup(ctx context.Context, groupID string) (*model.Streak, error) {
	var streak model.Streak
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).First(&streak).Error; err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *StreakRepository) UpdateWithLock(ctx context.Context, groupID string, fn func(s *model.Streak) (bool, error)) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var streak model.Streak
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_id = ?", groupID).
			First(&streak).Error
		if err != nil {
			return err
		}

		save, err := fn(&streak)
		if err != nil {
			return err
		}
		if !save {
			return nil
		}
		return tx.Save(&streak).Error
	})
}

// ContributionRepository implements IContributionRepository interface
type ContributionRepository struct {
	db *gorm.DB
}

// NewContributionRepository creates a new IContributionRepository instance
func NewContributionRepository(db *gorm.DB) IContributionRepository {
	return &ContributionRepository{db: db}
}

func (r *ContributionRepository) InsertIfAbsent(ctx context.Context, c *model.Contribution) (bool, error) {
	// The unique index on (group_id, user_id, contribution_date) makes
	// the first write win; later writes on the same day are no-ops.
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(c)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ContributionRepository) CountForDate(ctx context.Context, groupID string, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("group_id = ? AND contribution_date = ?", groupID, date).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContributionRepository) ListUserIDsForDate(ctx context.Context, groupID string, date time.Time) ([]string, error) {
	var userIDs []string
	err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("group_id = ? AND contribution_date = ?", groupID, date).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
