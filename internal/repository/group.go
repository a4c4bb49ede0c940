package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
)

// IGroupRepository defines the interface for group and membership data operations
type IGroupRepository interface {
	// Create persists the group, its creator as an admin member, and a
	// zeroed streak record in a single transaction.
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id string) (*model.Group, error)
	FindByInviteCode(ctx context.Context, code string) (*model.Group, error)
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, groupID, userID string, isAdmin bool) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	GetMemberGroups(ctx context.Context, userID string) ([]*model.Group, error)
	GetGroupMembers(ctx context.Context, groupID string) ([]*model.User, error)
	GetMembers(ctx context.Context, groupID string) ([]*model.GroupMember, error)
	CountMembers(ctx context.Context, groupID string) (int64, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// GroupRepository implements IGroupRepository interface
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new IGroupRepository instance
func NewGroupRepository(db *gorm.DB) IGroupRepository {
	return &GroupRepository{db: db}
}

// Create creates a group with its admin membership and streak record.
// The streak row is created here so that a group can never exist without
// one (current=0, best=0, no last activity date).
func (r *GroupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		member := &model.GroupMember{
			ID:      uuid.New().String(),
			GroupID: group.ID,
			UserID:  group.CreatedBy,
			IsAdmin: true,
		}
		if err := tx.Create(member).Error; err != nil {
			return err
		}

		streak := &model.Streak{
			ID:      uuid.New().String(),
			GroupID: group.ID,
		}
		return tx.Create(streak).Error
	})
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) FindByInviteCode(ctx context.Context, code string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// Delete removes the group and everything hanging off it. Contributions,
// messages, wall entries and the streak row go with the group.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&model.Contribution{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.Streak{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.WallPhoto{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Group{}).Error
	})
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string, isAdmin bool) error {
	member := &model.GroupMember{
		ID:      uuid.New().String(),
		GroupID: groupID,
		UserID:  userID,
		IsAdmin: isAdmin,
	}
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMember{}).Error
}

// GetMemberGroups retrieves all groups that a user is a member of
func (r *GroupRepository) GetMemberGroups(ctx context.Context, userID string) ([]*model.Group, error) {
	var groups []*model.Group
	err := r.db.WithContext(ctx).
		Table("groups").
		Joins("JOIN group_members ON groups.id = group_members.group_id").
		Where("group_members.user_id = ?", userID).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroupMembers retrieves all users that are members of a group
func (r *GroupRepository) GetGroupMembers(ctx context.Context, groupID string) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN group_members ON users.id = group_members.user_id").
		Where("group_members.group_id = ?", groupID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetMembers retrieves the raw membership rows for a group
func (r *GroupRepository) GetMembers(ctx context.Context, groupID string) ([]*model.GroupMember, error) {
	var members []*model.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *GroupRepository) CountMembers(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IsMember checks if a user is a member of a group
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
