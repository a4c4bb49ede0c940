package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gopher0727/StreakChat/internal/model"
)

var streakTestBase = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type streakFixture struct {
	users    *mockUserRepository
	streaks  *mockStreakRepository
	contribs *mockContributionRepository
	groups   *mockGroupRepository
	svc      *StreakService
}

func newStreakFixture() *streakFixture {
	users := newMockUserRepository()
	streaks := newMockStreakRepository()
	contribs := newMockContributionRepository()
	groups := newMockGroupRepository(users, streaks)

	svc := NewStreakService(streaks, contribs, groups)
	svc.now = func() time.Time { return streakTestBase }

	return &streakFixture{
		users:    users,
		streaks:  streaks,
		contribs: contribs,
		groups:   groups,
		svc:      svc,
	}
}

// addGroup creates a group whose first member is the creator, plus a
// zeroed streak row, the same state CreateGroup leaves behind.
func (f *streakFixture) addGroup(t *testing.T, groupID string, memberIDs ...string) {
	t.Helper()
	require.NotEmpty(t, memberIDs)

	for _, id := range memberIDs {
		f.users.users[id] = &model.User{ID: id, UserName: "user-" + id}
	}
	require.NoError(t, f.groups.Create(context.Background(), &model.Group{
		ID:        groupID,
		Name:      "group " + groupID,
		CreatedBy: memberIDs[0],
	}))
	for _, id := range memberIDs[1:] {
		require.NoError(t, f.groups.AddMember(context.Background(), groupID, id, false))
	}
}

// onDay moves the engine's clock to base+n days
func (f *streakFixture) onDay(n int) time.Time {
	day := streakTestBase.AddDate(0, 0, n)
	f.svc.now = func() time.Time { return day }
	return day
}

func (f *streakFixture) contribute(t *testing.T, groupID, userID string, n int) {
	t.Helper()
	date := streakTestBase.AddDate(0, 0, n)
	err := f.svc.RecordContribution(context.Background(), groupID, userID, date, model.MessageKindText, fmt.Sprintf("msg-%s-%d", userID, n))
	require.NoError(t, err)
}

func (f *streakFixture) streak(t *testing.T, groupID string) *model.Streak {
	t.Helper()
	streak, err := f.svc.GetStreak(context.Background(), groupID)
	require.NoError(t, err)
	return streak
}

func TestStreakService_SingleMember(t *testing.T) {
	f := newStreakFixture()
	f.addGroup(t, "g1", "alice")

	t.Run("first contribution starts the streak", func(t *testing.T) {
		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)

		s := f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.BestStreak)
		require.NotNil(t, s.LastActivity)
		assert.True(t, DayOf(*s.LastActivity).Equal(DayOf(streakTestBase)))
	})

	t.Run("consecutive day increments", func(t *testing.T) {
		f.onDay(1)
		f.contribute(t, "g1", "alice", 1)

		s := f.streak(t, "g1")
		assert.Equal(t, 2, s.CurrentStreak)
		assert.Equal(t, 2, s.BestStreak)
	})

	t.Run("skipped day resets to one, best is kept", func(t *testing.T) {
		// Day 2 passes with no activity
		f.onDay(3)
		f.contribute(t, "g1", "alice", 3)

		s := f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 2, s.BestStreak)
	})
}

func TestStreakService_TwoMembers(t *testing.T) {
	f := newStreakFixture()
	f.addGroup(t, "g1", "alice", "bob")

	t.Run("day is incomplete until every member contributes", func(t *testing.T) {
		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)

		s := f.streak(t, "g1")
		assert.Equal(t, 0, s.CurrentStreak)
		assert.Nil(t, s.LastActivity)

		f.contribute(t, "g1", "bob", 0)

		s = f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.BestStreak)
	})

	t.Run("partial day leaves the streak value visible", func(t *testing.T) {
		f.onDay(1)
		f.contribute(t, "g1", "alice", 1)

		// Bob never shows up on day 1. The counter still reads 1.
		s := f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
	})

	t.Run("completing a later day starts a fresh chain", func(t *testing.T) {
		f.onDay(2)
		f.contribute(t, "g1", "alice", 2)
		f.contribute(t, "g1", "bob", 2)

		// Day 1 was incomplete, so day 2's completion does not extend day 0.
		s := f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.BestStreak)
	})

	t.Run("chain grows while both keep contributing", func(t *testing.T) {
		f.onDay(3)
		f.contribute(t, "g1", "alice", 3)
		f.contribute(t, "g1", "bob", 3)

		s := f.streak(t, "g1")
		assert.Equal(t, 2, s.CurrentStreak)
		assert.Equal(t, 2, s.BestStreak)
	})
}

func TestStreakService_Idempotency(t *testing.T) {
	t.Run("repeat messages from the same user do not double count", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice")

		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)
		f.contribute(t, "g1", "alice", 0)
		f.contribute(t, "g1", "alice", 0)

		s := f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.BestStreak)

		count, err := f.contribs.CountForDate(context.Background(), "g1", DayOf(streakTestBase))
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("redundant recomputes leave the streak unchanged", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice", "bob")

		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)
		f.contribute(t, "g1", "bob", 0)

		for range 5 {
			require.NoError(t, f.svc.RecomputeStreak(context.Background(), "g1"))
		}

		s := f.streak(t, "g1")
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.BestStreak)
	})
}

func TestStreakService_MembershipChanges(t *testing.T) {
	t.Run("member added mid-streak raises the bar immediately", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice", "bob")

		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)
		f.contribute(t, "g1", "bob", 0)
		require.Equal(t, 1, f.streak(t, "g1").CurrentStreak)

		f.onDay(1)
		require.NoError(t, f.groups.AddMember(context.Background(), "g1", "carol", false))
		f.users.users["carol"] = &model.User{ID: "carol", UserName: "user-carol"}

		f.contribute(t, "g1", "alice", 1)
		f.contribute(t, "g1", "bob", 1)

		// Two of three contributed, day 1 is not complete yet
		assert.Equal(t, 1, f.streak(t, "g1").CurrentStreak)

		f.contribute(t, "g1", "carol", 1)
		s := f.streak(t, "g1")
		assert.Equal(t, 2, s.CurrentStreak)
	})

	t.Run("member leaving can complete the day on the next recompute", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice", "bob")

		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)
		assert.Equal(t, 0, f.streak(t, "g1").CurrentStreak)

		require.NoError(t, f.groups.RemoveMember(context.Background(), "g1", "bob"))
		require.NoError(t, f.svc.RecomputeStreak(context.Background(), "g1"))

		assert.Equal(t, 1, f.streak(t, "g1").CurrentStreak)
	})

	t.Run("contributions from removed members never overcount into completion", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice", "bob", "carol")

		f.onDay(0)
		f.contribute(t, "g1", "alice", 0)
		f.contribute(t, "g1", "bob", 0)
		assert.Equal(t, 0, f.streak(t, "g1").CurrentStreak)

		// Both contributors leave; their rows remain, so today's count (2)
		// exceeds the member count (1). That is not a completed day.
		require.NoError(t, f.groups.RemoveMember(context.Background(), "g1", "alice"))
		require.NoError(t, f.groups.RemoveMember(context.Background(), "g1", "bob"))
		require.NoError(t, f.svc.RecomputeStreak(context.Background(), "g1"))

		s := f.streak(t, "g1")
		assert.Equal(t, 0, s.CurrentStreak)
		assert.Equal(t, 0, s.BestStreak)
		assert.Nil(t, s.LastActivity)
	})
}

func TestStreakService_EmptyGroup(t *testing.T) {
	f := newStreakFixture()
	f.addGroup(t, "g1", "alice")
	require.NoError(t, f.groups.RemoveMember(context.Background(), "g1", "alice"))

	require.NoError(t, f.svc.RecomputeStreak(context.Background(), "g1"))

	s := f.streak(t, "g1")
	assert.Equal(t, 0, s.CurrentStreak)
	assert.Equal(t, 0, s.BestStreak)
	assert.Nil(t, s.LastActivity)
}

func TestStreakService_Errors(t *testing.T) {
	t.Run("unknown group maps to ErrGroupNotFound", func(t *testing.T) {
		f := newStreakFixture()

		err := f.svc.RecomputeStreak(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrGroupNotFound)

		_, err = f.svc.GetStreak(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrGroupNotFound)

		_, err = f.svc.GetTodayProgress(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrGroupNotFound)
	})

	t.Run("recording against an unknown group leaves no contribution behind", func(t *testing.T) {
		f := newStreakFixture()

		err := f.svc.RecordContribution(context.Background(), "missing", "alice", streakTestBase, model.MessageKindText, "m1")
		assert.ErrorIs(t, err, ErrGroupNotFound)
		assert.Empty(t, f.contribs.contributions)
	})

	t.Run("store failures surface as ErrPersistence", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice")
		f.streaks.failUpdates = fmt.Errorf("connection refused")

		err := f.svc.RecordContribution(context.Background(), "g1", "alice", streakTestBase, model.MessageKindText, "m1")
		assert.ErrorIs(t, err, ErrPersistence)
	})

	t.Run("repeated conflicts exhaust retries into ErrPersistence", func(t *testing.T) {
		f := newStreakFixture()
		f.addGroup(t, "g1", "alice")
		f.streaks.failUpdates = ErrConcurrencyConflict

		err := f.svc.RecomputeStreak(context.Background(), "g1")
		assert.ErrorIs(t, err, ErrPersistence)
	})
}

func TestStreakService_GetTodayProgress(t *testing.T) {
	f := newStreakFixture()
	f.addGroup(t, "g1", "alice", "bob", "carol")

	f.onDay(0)
	f.contribute(t, "g1", "alice", 0)

	progress, err := f.svc.GetTodayProgress(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, progress.TodayCount)
	assert.Equal(t, 3, progress.TotalMembers)
	assert.ElementsMatch(t, []string{"bob", "carol"}, progress.PendingUserIDs)

	f.contribute(t, "g1", "bob", 0)
	f.contribute(t, "g1", "carol", 0)

	progress, err = f.svc.GetTodayProgress(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TodayCount)
	assert.Empty(t, progress.PendingUserIDs)

	// A new day starts with a clean slate
	f.onDay(1)
	progress, err = f.svc.GetTodayProgress(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 0, progress.TodayCount)
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, progress.PendingUserIDs)
}

func TestDayOf(t *testing.T) {
	t.Run("truncates to UTC midnight", func(t *testing.T) {
		in := time.Date(2025, 3, 10, 23, 59, 59, 0, time.UTC)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), DayOf(in))
	})

	t.Run("converts zoned times to the UTC day", func(t *testing.T) {
		zone := time.FixedZone("UTC+9", 9*3600)
		in := time.Date(2025, 3, 11, 6, 0, 0, 0, zone) // 21:00 UTC on March 10
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), DayOf(in))
	})
}
