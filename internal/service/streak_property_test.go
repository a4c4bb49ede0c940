package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Gopher0727/StreakChat/internal/model"
)

// Drives the engine through random day-by-day contribution patterns and
// checks the counter invariants after every recompute.
func TestProperty_StreakInvariants(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("best streak never decreases and always bounds current", prop.ForAll(
		func(memberCount int, pattern []int) bool {
			f := newStreakFixture()

			memberIDs := make([]string, memberCount)
			for i := range memberIDs {
				memberIDs[i] = fmt.Sprintf("user-%d", i)
			}
			f.addGroupUnchecked(memberIDs)

			ctx := context.Background()
			prevBest := 0

			for day, contributors := range pattern {
				date := streakTestBase.AddDate(0, 0, day)
				f.svc.now = func() time.Time { return date }

				// contributors is a bitmask over members
				for i, id := range memberIDs {
					if contributors&(1<<i) == 0 {
						continue
					}
					err := f.svc.RecordContribution(ctx, "g", id, date, model.MessageKindText, fmt.Sprintf("m-%d-%d", day, i))
					if err != nil {
						return false
					}
				}

				streak, err := f.svc.GetStreak(ctx, "g")
				if err != nil {
					return false
				}
				if streak.CurrentStreak < 0 || streak.BestStreak < streak.CurrentStreak {
					return false
				}
				if streak.BestStreak < prevBest {
					return false
				}
				prevBest = streak.BestStreak
			}
			return true
		},
		gen.IntRange(1, 4),
		gen.SliceOfN(14, gen.IntRange(0, 15)),
	))

	properties.Property("a fully active group's streak equals the day count", prop.ForAll(
		func(memberCount, days int) bool {
			f := newStreakFixture()

			memberIDs := make([]string, memberCount)
			for i := range memberIDs {
				memberIDs[i] = fmt.Sprintf("user-%d", i)
			}
			f.addGroupUnchecked(memberIDs)

			ctx := context.Background()
			for day := range days {
				date := streakTestBase.AddDate(0, 0, day)
				f.svc.now = func() time.Time { return date }
				for i, id := range memberIDs {
					err := f.svc.RecordContribution(ctx, "g", id, date, model.MessageKindText, fmt.Sprintf("m-%d-%d", day, i))
					if err != nil {
						return false
					}
				}
			}

			streak, err := f.svc.GetStreak(ctx, "g")
			if err != nil {
				return false
			}
			return streak.CurrentStreak == days && streak.BestStreak == days
		},
		gen.IntRange(1, 4),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// addGroupUnchecked seeds a group without a testing.T, for property runs
func (f *streakFixture) addGroupUnchecked(memberIDs []string) {
	for _, id := range memberIDs {
		f.users.users[id] = &model.User{ID: id, UserName: id}
	}
	_ = f.groups.Create(context.Background(), &model.Group{
		ID:        "g",
		Name:      "property group",
		CreatedBy: memberIDs[0],
	})
	for _, id := range memberIDs[1:] {
		_ = f.groups.AddMember(context.Background(), "g", id, false)
	}
}
