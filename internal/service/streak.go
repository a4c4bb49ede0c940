package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Gopher0727/StreakChat/internal/model"
	"github.com/Gopher0727/StreakChat/internal/repository"
)

var (
	ErrPersistence         = errors.New("persistence failure")
	ErrConcurrencyConflict = errors.New("concurrent streak update conflict")
)

// recomputeAttempts bounds the retry loop around the streak read-modify-write.
// Recomputing is idempotent, so retrying a conflicted attempt is always safe.
const recomputeAttempts = 3

// DayOf truncates t to its UTC calendar day. All streak accounting uses
// UTC days so that "today" means the same thing for every member,
// whatever their local timezone.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TodayProgress describes how far a group is from completing the current day
type TodayProgress struct {
	TodayCount     int      `json:"today_count"`
	TotalMembers   int      `json:"total_members"`
	PendingUserIDs []string `json:"pending_user_ids"`
}

// IStreakService defines the interface for the streak engine
//
// The engine owns the rule "did every member of the group contribute
// today?" and maintains the group's consecutive-day streak counters.
// It is invoked synchronously after a message has been durably stored;
// it never re-validates membership of the contributing user (the caller
// rejects non-members before the message is stored).
type IStreakService interface {
	RecordContribution(ctx context.Context, groupID, userID string, date time.Time, kind, messageID string) error
	RecomputeStreak(ctx context.Context, groupID string) error
	GetStreak(ctx context.Context, groupID string) (*model.Streak, error)
	GetTodayProgress(ctx context.Context, groupID string) (*TodayProgress, error)
}

// StreakService implements the IStreakService interface.
// It is stateless; all persistent state lives in the store, so one
// instance can be shared or constructed per worker interchangeably.
type StreakService struct {
	streakRepo  repository.IStreakRepository
	contribRepo repository.IContributionRepository
	groupRepo   repository.IGroupRepository

	// now is the clock used to resolve "today"; overridable in tests
	now func() time.Time
}

// NewStreakService creates a new IStreakService instance
func NewStreakService(
	streakRepo repository.IStreakRepository,
	contribRepo repository.IContributionRepository,
	groupRepo repository.IGroupRepository,
) *StreakService {
	return &StreakService{
		streakRepo:  streakRepo,
		contribRepo: contribRepo,
		groupRepo:   groupRepo,
		now:         time.Now,
	}
}

// RecordContribution marks the user as having contributed in the group on
// the given day, then recomputes the group's streak.
//
// The insert is idempotent: only the first contribution per
// (group, user, day) creates a row, a user can send unlimited messages
// per day. The recompute runs unconditionally, even for a duplicate, so
// a same-day membership change is still picked up.
func (s *StreakService) RecordContribution(ctx context.Context, groupID, userID string, date time.Time, kind, messageID string) error {
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return fmt.Errorf("%w: failed to find group: %v", ErrPersistence, err)
	}

	contribution := &model.Contribution{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		UserID:    userID,
		Date:      DayOf(date),
		Kind:      kind,
		MessageID: messageID,
	}

	if _, err := s.contribRepo.InsertIfAbsent(ctx, contribution); err != nil {
		return fmt.Errorf("%w: failed to record contribution: %v", ErrPersistence, err)
	}

	return s.RecomputeStreak(ctx, groupID)
}

// RecomputeStreak re-evaluates the group's completion state for today and
// advances the streak counters when the day just became complete.
//
// The operation is idempotent and safe to call redundantly; concurrent
// calls for the same group serialize on the streak row lock. Conflicted
// attempts are retried a bounded number of times before surfacing a
// persistence failure.
func (s *StreakService) RecomputeStreak(ctx context.Context, groupID string) error {
	var lastErr error
	for attempt := 0; attempt < recomputeAttempts; attempt++ {
		err := s.recomputeOnce(ctx, groupID)
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		if !errors.Is(err, ErrConcurrencyConflict) {
			return fmt.Errorf("%w: failed to recompute streak: %v", ErrPersistence, err)
		}
		lastErr = err
	}
	return fmt.Errorf("%w: recompute conflicted %d times: %v", ErrPersistence, recomputeAttempts, lastErr)
}

func (s *StreakService) recomputeOnce(ctx context.Context, groupID string) error {
	today := DayOf(s.now())
	yesterday := today.AddDate(0, 0, -1)

	return s.streakRepo.UpdateWithLock(ctx, groupID, func(streak *model.Streak) (bool, error) {
		totalMembers, err := s.groupRepo.CountMembers(ctx, groupID)
		if err != nil {
			return false, err
		}
		if totalMembers == 0 {
			// An empty group can never complete a day.
			return false, nil
		}

		todayCount, err := s.contribRepo.CountForDate(ctx, groupID, today)
		if err != nil {
			return false, err
		}
		if todayCount != totalMembers {
			// Day not complete. The streak is left as-is: a broken chain
			// is only detected at the next completed day, so a stale
			// positive value stays visible through missed days.
			// Strict equality also covers removed members whose rows
			// still count toward today: an overcount is not completion.
			return false, nil
		}

		// Every current member has contributed today.
		switch {
		case streak.LastActivity != nil && DayOf(*streak.LastActivity).Equal(yesterday):
			// Unbroken chain continues.
			streak.CurrentStreak++
		case streak.LastActivity == nil || !DayOf(*streak.LastActivity).Equal(today):
			// The previous completion, if any, was before yesterday:
			// at least one day was skipped, a fresh chain starts.
			streak.CurrentStreak = 1
		default:
			// Already advanced for today by an earlier recompute.
			return false, nil
		}

		if streak.CurrentStreak > streak.BestStreak {
			streak.BestStreak = streak.CurrentStreak
		}
		streak.LastActivity = &today
		return true, nil
	})
}

// GetStreak returns the group's streak record
func (s *StreakService) GetStreak(ctx context.Context, groupID string) (*model.Streak, error) {
	streak, err := s.streakRepo.FindByGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return streak, nil
}

// GetTodayProgress reports today's completion state for the group: how
// many members have contributed, how many members there are, and who has
// not contributed yet. Computed fresh on every call, never cached.
func (s *StreakService) GetTodayProgress(ctx context.Context, groupID string) (*TodayProgress, error) {
	if _, err := s.groupRepo.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	today := DayOf(s.now())

	members, err := s.groupRepo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	contributorIDs, err := s.contribRepo.ListUserIDsForDate(ctx, groupID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributors: %w", err)
	}

	contributed := make(map[string]bool, len(contributorIDs))
	for _, id := range contributorIDs {
		contributed[id] = true
	}

	pending := make([]string, 0, len(members))
	for _, m := range members {
		if !contributed[m.UserID] {
			pending = append(pending, m.UserID)
		}
	}

	return &TodayProgress{
		TodayCount:     len(contributorIDs),
		TotalMembers:   len(members),
		PendingUserIDs: pending,
	}, nil
}
