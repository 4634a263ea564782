package service

import "github.com/streaklog/internal/tracker"

// BadgeRule 将一枚徽章与它的解锁判定绑定在一起
type BadgeRule struct {
	Badge  tracker.Badge
	Earned func(state tracker.State) bool
}

// BadgeService 负责在打卡等事件之后评估徽章解锁条件
// 已解锁的徽章不会重复上报，实际去重由状态引擎兜底
type BadgeService struct {
	rules []BadgeRule
}

// NewBadgeService 构造带默认徽章目录的 BadgeService
func NewBadgeService() *BadgeService {
	return &BadgeService{rules: defaultBadgeRules()}
}

// Evaluate 返回当前状态下新达成且尚未解锁的徽章
func (b *BadgeService) Evaluate(state tracker.State) []tracker.Badge {
	unlocked := make(map[string]struct{}, len(state.Badges))
	for _, badge := range state.Badges {
		unlocked[badge.ID] = struct{}{}
	}

	var earned []tracker.Badge
	for _, rule := range b.rules {
		if _, ok := unlocked[rule.Badge.ID]; ok {
			continue
		}
		if rule.Earned(state) {
			earned = append(earned, rule.Badge)
		}
	}

	return earned
}

func defaultBadgeRules() []BadgeRule {
	return []BadgeRule{
		{
			Badge: tracker.Badge{
				ID:          "first_completion",
				Name:        "迈出第一步",
				Description: "完成第一次打卡",
				Icon:        "🌱",
				Condition:   "任意习惯完成 1 次打卡",
			},
			Earned: func(s tracker.State) bool {
				return anyHabit(s, func(h tracker.Habit) bool { return h.TotalCompletions >= 1 })
			},
		},
		{
			Badge: tracker.Badge{
				ID:          "streak_7",
				Name:        "七日连胜",
				Description: "单个习惯连续打卡 7 天",
				Icon:        "🔥",
				Condition:   "任意习惯当前连胜达到 7",
			},
			Earned: func(s tracker.State) bool {
				return anyHabit(s, func(h tracker.Habit) bool { return h.CurrentStreak >= 7 })
			},
		},
		{
			Badge: tracker.Badge{
				ID:          "streak_30",
				Name:        "月度坚持",
				Description: "单个习惯连续打卡 30 天",
				Icon:        "🏔️",
				Condition:   "任意习惯当前连胜达到 30",
			},
			Earned: func(s tracker.State) bool {
				return anyHabit(s, func(h tracker.Habit) bool { return h.CurrentStreak >= 30 })
			},
		},
		{
			Badge: tracker.Badge{
				ID:          "habit_level_5",
				Name:        "渐入佳境",
				Description: "任意习惯升到 5 级",
				Icon:        "⭐",
				Condition:   "任意习惯等级达到 5",
			},
			Earned: func(s tracker.State) bool {
				return anyHabit(s, func(h tracker.Habit) bool { return h.Level >= 5 })
			},
		},
		{
			Badge: tracker.Badge{
				ID:          "habit_level_10",
				Name:        "登峰造极",
				Description: "任意习惯升到满级",
				Icon:        "👑",
				Condition:   "任意习惯等级达到 10",
			},
			Earned: func(s tracker.State) bool {
				return anyHabit(s, func(h tracker.Habit) bool { return h.Level >= tracker.MaxLevel })
			},
		},
		{
			Badge: tracker.Badge{
				ID:          "completions_100",
				Name:        "百炼成钢",
				Description: "累计完成 100 次打卡",
				Icon:        "💯",
				Condition:   "所有习惯累计打卡达到 100 次",
			},
			Earned: func(s tracker.State) bool {
				total := 0
				for _, h := range s.Habits {
					total += h.TotalCompletions
				}
				return total >= 100
			},
		},
		{
			Badge: tracker.Badge{
				ID:          "perfect_day",
				Name:        "完美一天",
				Description: "一天内完成所有习惯",
				Icon:        "🌟",
				Condition:   "生产力得分达到 100",
			},
			Earned: func(s tracker.State) bool {
				return len(s.Habits) > 0 && s.ProductivityScore == 100
			},
		},
	}
}

func anyHabit(s tracker.State, match func(tracker.Habit) bool) bool {
	for _, h := range s.Habits {
		if match(h) {
			return true
		}
	}
	return false
}
