package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
)

// In-memory repository implementations backing the service tests.
// They mirror the persistence contracts the services rely on, including
// gorm.ErrRecordNotFound for missing rows.

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*model.User)}
}

func (r *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.UserName == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *mockUserRepository) UpdatePushToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PushToken = token
	return nil
}

type mockStreakRepository struct {
	mu      sync.Mutex
	streaks map[string]*model.Streak

	// failUpdates forces UpdateWithLock to fail, simulating a
	// persistence outage
	failUpdates error
}

func newMockStreakRepository() *mockStreakRepository {
	return &mockStreakRepository{streaks: make(map[string]*model.Streak)}
}

func (r *mockStreakRepository) put(streak *model.Streak) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streaks[streak.GroupID] = streak
}

func (r *mockStreakRepository) FindByGroup(ctx context.Context, groupID string) (*model.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if streak, ok := r.streaks[groupID]; ok {
		copied := *streak
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockStreakRepository) UpdateWithLock(ctx context.Context, groupID string, fn func(s *model.Streak) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates != nil {
		return r.failUpdates
	}

	streak, ok := r.streaks[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	copied := *streak
	save, err := fn(&copied)
	if err != nil {
		return err
	}
	if save {
		r.streaks[groupID] = &copied
	}
	return nil
}

type contributionKey struct {
	groupID string
	userID  string
	day     string
}

type mockContributionRepository struct {
	mu            sync.Mutex
	contributions map[contributionKey]*model.Contribution
}

func newMockContributionRepository() *mockContributionRepository {
	return &mockContributionRepository{contributions: make(map[contributionKey]*model.Contribution)}
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (r *mockContributionRepository) InsertIfAbsent(ctx context.Context, c *model.Contribution) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := contributionKey{groupID: c.GroupID, userID: c.UserID, day: dayKey(c.Date)}
	if _, ok := r.contributions[key]; ok {
		return false, nil
	}
	r.contributions[key] = c
	return true, nil
}

func (r *mockContributionRepository) CountForDate(ctx context.Context, groupID string, date time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	day := dayKey(date)
	for key := range r.contributions {
		if key.groupID == groupID && key.day == day {
			count++
		}
	}
	return count, nil
}

func (r *mockContributionRepository) ListUserIDsForDate(ctx context.Context, groupID string, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var userIDs []string
	day := dayKey(date)
	for key := range r.contributions {
		if key.groupID == groupID && key.day == day {
			userIDs = append(userIDs, key.userID)
		}
	}
	return userIDs, nil
}

type mockGroupRepository struct {
	mu      sync.Mutex
	groups  map[string]*model.Group
	members map[string][]*model.GroupMember
	users   *mockUserRepository

	// streaks receives the zeroed streak row created with each group,
	// matching the transactional create in the real repository
	streaks *mockStreakRepository
}

func newMockGroupRepository(users *mockUserRepository, streaks *mockStreakRepository) *mockGroupRepository {
	return &mockGroupRepository{
		groups:  make(map[string]*model.Group),
		members: make(map[string][]*model.GroupMember),
		users:   users,
		streaks: streaks,
	}
}

func (r *mockGroupRepository) Create(ctx context.Context, group *model.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.ID] = group
	r.members[group.ID] = []*model.GroupMember{{
		ID:      fmt.Sprintf("member-%s-%s", group.ID, group.CreatedBy),
		GroupID: group.ID,
		UserID:  group.CreatedBy,
		IsAdmin: true,
	}}
	r.streaks.put(&model.Streak{
		ID:      fmt.Sprintf("streak-%s", group.ID),
		GroupID: group.ID,
	})
	return nil
}

func (r *mockGroupRepository) FindByID(ctx context.Context, id string) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group, ok := r.groups[id]; ok {
		return group, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockGroupRepository) FindByInviteCode(ctx context.Context, code string) (*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, group := range r.groups {
		if group.InviteCode == code {
			return group, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockGroupRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, id)
	delete(r.members, id)
	return nil
}

func (r *mockGroupRepository) AddMember(ctx context.Context, groupID, userID string, isAdmin bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[groupID] = append(r.members[groupID], &model.GroupMember{
		ID:      fmt.Sprintf("member-%s-%s", groupID, userID),
		GroupID: groupID,
		UserID:  userID,
		IsAdmin: isAdmin,
	})
	return nil
}

func (r *mockGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[groupID]
	for i, m := range members {
		if m.UserID == userID {
			r.members[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *mockGroupRepository) GetMemberGroups(ctx context.Context, userID string) ([]*model.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var groups []*model.Group
	for groupID, members := range r.members {
		for _, m := range members {
			if m.UserID == userID {
				groups = append(groups, r.groups[groupID])
				break
			}
		}
	}
	return groups, nil
}

func (r *mockGroupRepository) GetGroupMembers(ctx context.Context, groupID string) ([]*model.User, error) {
	r.mu.Lock()
	members := r.members[groupID]
	r.mu.Unlock()

	var users []*model.User
	for _, m := range members {
		if user, err := r.users.FindByID(ctx, m.UserID); err == nil {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *mockGroupRepository) GetMembers(ctx context.Context, groupID string) ([]*model.GroupMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.GroupMember(nil), r.members[groupID]...), nil
}

func (r *mockGroupRepository) CountMembers(ctx context.Context, groupID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.members[groupID])), nil
}

func (r *mockGroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[groupID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type mockMessageRepository struct {
	mu       sync.Mutex
	messages map[string]*model.Message
}

func newMockMessageRepository() *mockMessageRepository {
	return &mockMessageRepository{messages: make(map[string]*model.Message)}
}

func (r *mockMessageRepository) Create(ctx context.Context, message *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	r.messages[message.ID] = message
	return nil
}

func (r *mockMessageRepository) FindByGroup(ctx context.Context, groupID string, afterSeqID int64, limit int) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.Message
	for _, m := range r.messages {
		if m.GroupID == groupID && m.SeqID > afterSeqID {
			result = append(result, m)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *mockMessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.messages[id]; ok {
		return m, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockWallRepository struct {
	mu     sync.Mutex
	photos map[string]*model.WallPhoto
	likes  map[string]map[string]bool
}

func newMockWallRepository() *mockWallRepository {
	return &mockWallRepository{
		photos: make(map[string]*model.WallPhoto),
		likes:  make(map[string]map[string]bool),
	}
}

func (r *mockWallRepository) CreatePhoto(ctx context.Context, photo *model.WallPhoto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photos[photo.ID] = photo
	return nil
}

func (r *mockWallRepository) FindPhotoByID(ctx context.Context, id string) (*model.WallPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if photo, ok := r.photos[id]; ok {
		return photo, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockWallRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]*model.WallPhoto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.WallPhoto
	for _, photo := range r.photos {
		if photo.GroupID == groupID {
			result = append(result, photo)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *mockWallRepository) ToggleLike(ctx context.Context, photoID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	photo, ok := r.photos[photoID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if r.likes[photoID] == nil {
		r.likes[photoID] = make(map[string]bool)
	}
	if r.likes[photoID][userID] {
		delete(r.likes[photoID], userID)
		photo.LikesCount--
		return false, nil
	}
	r.likes[photoID][userID] = true
	photo.LikesCount++
	return true, nil
}

type mockNotificationRepository struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func newMockNotificationRepository() *mockNotificationRepository {
	return &mockNotificationRepository{}
}

func (r *mockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *mockNotificationRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.Notification
	for _, n := range r.notifications {
		if n.GroupID == groupID {
			result = append(result, n)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []*MessageEvent
}

func (p *mockEventPublisher) PublishMessageEvent(ctx context.Context, event *MessageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}
