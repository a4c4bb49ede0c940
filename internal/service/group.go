package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
	"github.com/Gopher0727/StreakChat/internal/repository"
)

var (
	ErrGroupNotFound      = errors.New("group not found")
	ErrInvalidInviteCode  = errors.New("invalid invite code")
	ErrAlreadyMember      = errors.New("user is already a member of this group")
	ErrNotMember          = errors.New("user is not a member of this group")
	ErrCreatorCannotLeave = errors.New("group creator cannot leave the group")
)

// CreateGroupRequest represents a request to create a new group
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}

// GroupSummary is a group decorated with membership and streak info for list views
type GroupSummary struct {
	*model.Group
	MemberCount   int64 `json:"member_count"`
	CurrentStreak int   `json:"current_streak"`
	BestStreak    int   `json:"best_streak"`
	IsAdmin       bool  `json:"is_admin"`
}

// IGroupService defines the interface for group management operations
type IGroupService interface {
	CreateGroup(ctx context.Context, userID string, name string) (*model.Group, error)
	JoinGroup(ctx context.Context, userID string, inviteCode string) (*model.Group, error)
	LeaveGroup(ctx context.Context, userID string, groupID string) error
	DeleteGroup(ctx context.Context, userID string, groupID string) error
	GetUserGroups(ctx context.Context, userID string) ([]*GroupSummary, error)
	GetGroupMembers(ctx context.Context, groupID string) ([]*model.User, error)
	IsMember(ctx context.Context, userID string, groupID string) (bool, error)
}

// GroupService implements the IGroupService interface
type GroupService struct {
	groupRepo  repository.IGroupRepository
	userRepo   repository.IUserRepository
	streakRepo repository.IStreakRepository
}

// NewGroupService creates a new IGroupService instance
func NewGroupService(
	groupRepo repository.IGroupRepository,
	userRepo repository.IUserRepository,
	streakRepo repository.IStreakRepository,
) IGroupService {
	return &GroupService{
		groupRepo:  groupRepo,
		userRepo:   userRepo,
		streakRepo: streakRepo,
	}
}

// CreateGroup creates a new group with a unique invite code.
// The creator becomes an admin member, and the group's zeroed streak
// record is created in the same transaction as the group itself.
func (s *GroupService) CreateGroup(ctx context.Context, userID string, name string) (*model.Group, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	inviteCode, err := s.generateUniqueInviteCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invite code: %w", err)
	}

	group := &model.Group{
		ID:         uuid.New().String(),
		Name:       name,
		CreatedBy:  user.ID,
		InviteCode: inviteCode,
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// JoinGroup allows a user to join a group using an invite code
func (s *GroupService) JoinGroup(ctx context.Context, userID string, inviteCode string) (*model.Group, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	group, err := s.groupRepo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	isMember, err := s.groupRepo.IsMember(ctx, group.ID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	if err := s.groupRepo.AddMember(ctx, group.ID, user.ID, false); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return group, nil
}

// LeaveGroup removes the user from the group. The creator cannot leave;
// they delete the group instead.
func (s *GroupService) LeaveGroup(ctx context.Context, userID string, groupID string) error {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to find group: %w", err)
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return ErrNotMember
	}

	if group.CreatedBy == userID {
		return ErrCreatorCannotLeave
	}

	if err := s.groupRepo.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// DeleteGroup deletes the group and all dependent records. Only the creator may delete.
func (s *GroupService) DeleteGroup(ctx context.Context, userID string, groupID string) error {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("failed to find group: %w", err)
	}
	if group.CreatedBy != userID {
		return ErrNotMember
	}

	if err := s.groupRepo.Delete(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}

// GetUserGroups retrieves all groups a user belongs to, decorated with
// member counts and streak counters for the group list screen.
func (s *GroupService) GetUserGroups(ctx context.Context, userID string) ([]*GroupSummary, error) {
	groups, err := s.groupRepo.GetMemberGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	summaries := make([]*GroupSummary, 0, len(groups))
	for _, group := range groups {
		summary := &GroupSummary{Group: group, IsAdmin: group.CreatedBy == userID}

		if count, err := s.groupRepo.CountMembers(ctx, group.ID); err == nil {
			summary.MemberCount = count
		}
		if streak, err := s.streakRepo.FindByGroup(ctx, group.ID); err == nil {
			summary.CurrentStreak = streak.CurrentStreak
			summary.BestStreak = streak.BestStreak
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// GetGroupMembers retrieves all members of a group
func (s *GroupService) GetGroupMembers(ctx context.Context, groupID string) ([]*model.User, error) {
	_, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	members, err := s.groupRepo.GetGroupMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	return members, nil
}

// IsMember checks if a user is a member of a group
func (s *GroupService) IsMember(ctx context.Context, userID string, groupID string) (bool, error) {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return isMember, nil
}

// generateUniqueInviteCode generates a unique invite code for a group.
// It ensures uniqueness by checking against existing codes.
func (s *GroupService) generateUniqueInviteCode(ctx context.Context) (string, error) {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		code := generateInviteCode()

		_, err := s.groupRepo.FindByInviteCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return code, nil
			}
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		// Code exists, try again
	}
	return "", errors.New("failed to generate unique invite code after maximum attempts")
}

// generateInviteCode generates a random 8-character alphanumeric invite code
func generateInviteCode() string {
	bytes := make([]byte, 4) // 4 bytes = 8 hex characters
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to UUID-based generation if crypto/rand fails
		return uuid.New().String()[:8]
	}
	return hex.EncodeToString(bytes)
}
