package service

import (
	"testing"

	"github.com/streaklog/internal/tracker"
)

func TestBadgeEvaluateSkipsUnlocked(t *testing.T) {
	svc := NewBadgeService()

	state := tracker.InitialState()
	state.Habits = []tracker.Habit{{ID: "h1", Name: "晨跑", TotalCompletions: 1, CurrentStreak: 1, Level: 1}}
	state.ProductivityScore = 100

	earned := svc.Evaluate(state)
	ids := make(map[string]bool, len(earned))
	for _, b := range earned {
		ids[b.ID] = true
	}
	if !ids["first_completion"] || !ids["perfect_day"] {
		t.Fatalf("expected first_completion and perfect_day, got %v", ids)
	}
	if ids["streak_7"] {
		t.Fatal("streak_7 should not unlock at streak 1")
	}

	// 已解锁的徽章不再重复上报
	state.Badges = append(state.Badges, tracker.Badge{ID: "first_completion"})
	earned = svc.Evaluate(state)
	for _, b := range earned {
		if b.ID == "first_completion" {
			t.Fatal("already unlocked badge reported again")
		}
	}
}

func TestBadgeStreakAndLevelRules(t *testing.T) {
	svc := NewBadgeService()

	state := tracker.InitialState()
	state.Habits = []tracker.Habit{{ID: "h1", Name: "晨跑", TotalCompletions: 30, CurrentStreak: 30, Level: tracker.MaxLevel}}

	earned := svc.Evaluate(state)
	ids := make(map[string]bool, len(earned))
	for _, b := range earned {
		ids[b.ID] = true
	}

	for _, want := range []string{"streak_7", "streak_30", "habit_level_5", "habit_level_10"} {
		if !ids[want] {
			t.Fatalf("expected badge %s to unlock, got %v", want, ids)
		}
	}
	if ids["completions_100"] {
		t.Fatal("completions_100 should need 100 total completions")
	}
}
