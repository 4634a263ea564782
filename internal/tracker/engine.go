package tracker

import (
	"math"
	"time"
)

// Action 是状态引擎可处理的动作集合
// 动作只携带数据，所有副作用都在 Apply 中集中计算
type Action interface {
	isAction()
}

// AddHabit 追加一个已构造完成的习惯（id/createdAt 由调用方生成）
type AddHabit struct {
	Habit Habit
}

// UpdateHabit 按 id 整体替换习惯，id 不存在则为空操作
type UpdateHabit struct {
	Habit Habit
}

// DeleteHabit 按 id 删除习惯，不回溯调整全局经验与连胜
type DeleteHabit struct {
	ID string
}

// CompleteHabit 在指定日期为习惯打卡，同日重复打卡为空操作
type CompleteHabit struct {
	HabitID string
	Date    string
}

// UndoCompletion 撤销指定日期的打卡
type UndoCompletion struct {
	HabitID string
	Date    string
}

// AddGoal 追加一个已构造完成的目标（含里程碑）
type AddGoal struct {
	Goal Goal
}

// UpdateGoal 按 id 整体替换目标
type UpdateGoal struct {
	Goal Goal
}

// DeleteGoal 按 id 删除目标
type DeleteGoal struct {
	ID string
}

// UpdateGoalProgress 更新目标进度，进度值会被收敛到 [0, targetValue]
type UpdateGoalProgress struct {
	GoalID string
	Value  float64
}

// UnlockBadge 解锁徽章，同 id 重复解锁为空操作
type UnlockBadge struct {
	Badge Badge
}

func (AddHabit) isAction()           {}
func (UpdateHabit) isAction()        {}
func (DeleteHabit) isAction()        {}
func (CompleteHabit) isAction()      {}
func (UndoCompletion) isAction()     {}
func (AddGoal) isAction()            {}
func (UpdateGoal) isAction()         {}
func (DeleteGoal) isAction()         {}
func (UpdateGoalProgress) isAction() {}
func (UnlockBadge) isAction()        {}

// Apply 是状态引擎的唯一入口：给定当前状态和动作，返回下一个状态
// 纯函数：不修改输入、不做 I/O；引用不存在的 id 一律原样返回
// now 用于给里程碑完成时间、徽章解锁时间盖章，由调用方提供时钟
func Apply(state State, action Action, now time.Time) State {
	switch a := action.(type) {
	case AddHabit:
		next := state.Clone()
		next.Habits = append(next.Habits, cloneHabit(a.Habit))
		return next

	case UpdateHabit:
		idx := habitIndex(state.Habits, a.Habit.ID)
		if idx < 0 {
			return state
		}
		next := state.Clone()
		next.Habits[idx] = cloneHabit(a.Habit)
		return next

	case DeleteHabit:
		idx := habitIndex(state.Habits, a.ID)
		if idx < 0 {
			return state
		}
		next := state.Clone()
		next.Habits = append(next.Habits[:idx], next.Habits[idx+1:]...)
		return next

	case CompleteHabit:
		return applyComplete(state, a)

	case UndoCompletion:
		return applyUndo(state, a)

	case AddGoal:
		next := state.Clone()
		next.Goals = append(next.Goals, cloneGoal(a.Goal))
		return next

	case UpdateGoal:
		idx := goalIndex(state.Goals, a.Goal.ID)
		if idx < 0 {
			return state
		}
		next := state.Clone()
		next.Goals[idx] = cloneGoal(a.Goal)
		return next

	case DeleteGoal:
		idx := goalIndex(state.Goals, a.ID)
		if idx < 0 {
			return state
		}
		next := state.Clone()
		next.Goals = append(next.Goals[:idx], next.Goals[idx+1:]...)
		return next

	case UpdateGoalProgress:
		return applyGoalProgress(state, a, now)

	case UnlockBadge:
		for _, b := range state.Badges {
			if b.ID == a.Badge.ID {
				return state
			}
		}
		next := state.Clone()
		badge := cloneBadge(a.Badge)
		unlocked := now
		badge.UnlockedAt = &unlocked
		next.Badges = append(next.Badges, badge)
		return next
	}

	return state
}

func applyComplete(state State, a CompleteHabit) State {
	idx := habitIndex(state.Habits, a.HabitID)
	if idx < 0 || state.Habits[idx].HasCompleted(a.Date) {
		return state
	}

	next := state.Clone()
	h := &next.Habits[idx]

	gain := XPForDifficulty(h.Difficulty)
	h.CompletedDates = append(h.CompletedDates, a.Date)
	h.TotalCompletions++
	h.CurrentStreak++
	if h.CurrentStreak > h.BestStreak {
		h.BestStreak = h.CurrentStreak
	}
	h.XP += gain

	if level := LevelForTotalXP(h.XP); level > h.Level {
		h.Level = level
		h.XPToNextLevel = XPRequiredForLevel(h.Level)
	}

	next.TotalXP += gain
	next.UserLevel = LevelForTotalXP(next.TotalXP)

	// 全局连胜只在当天所有习惯都完成时 +1，未完成不清零
	completedToday := 0
	for i := range next.Habits {
		if next.Habits[i].HasCompleted(a.Date) {
			completedToday++
		}
	}
	if completedToday == len(next.Habits) {
		next.CurrentStreak++
		if next.CurrentStreak > next.BestStreak {
			next.BestStreak = next.CurrentStreak
		}
	}

	next.ProductivityScore = int(math.Round(float64(completedToday) / float64(len(next.Habits)) * 100))

	return next
}

func applyUndo(state State, a UndoCompletion) State {
	idx := habitIndex(state.Habits, a.HabitID)
	if idx < 0 || !state.Habits[idx].HasCompleted(a.Date) {
		return state
	}

	next := state.Clone()
	h := &next.Habits[idx]

	lost := XPForDifficulty(h.Difficulty)
	h.CompletedDates = removeDate(h.CompletedDates, a.Date)
	h.TotalCompletions = maxInt(0, h.TotalCompletions-1)
	h.CurrentStreak = maxInt(0, h.CurrentStreak-1)
	h.XP = maxInt(0, h.XP-lost)

	next.TotalXP = maxInt(0, next.TotalXP-lost)
	newUserLevel := LevelForTotalXP(next.TotalXP)

	// 沿用既有行为：用户等级下降时习惯等级只回退一级，
	// 不按 LevelForTotalXP(h.XP) 精确重算，跨级多次撤销可能产生偏差
	if newUserLevel < next.UserLevel {
		h.Level = maxInt(1, h.Level-1)
	}
	next.UserLevel = newUserLevel

	return next
}

func applyGoalProgress(state State, a UpdateGoalProgress, now time.Time) State {
	idx := goalIndex(state.Goals, a.GoalID)
	if idx < 0 {
		return state
	}

	next := state.Clone()
	g := &next.Goals[idx]

	g.CurrentValue = math.Min(math.Max(a.Value, 0), g.TargetValue)
	if a.Value >= g.TargetValue {
		g.Status = GoalStatusCompleted
	} else {
		g.Status = GoalStatusActive
	}

	for i := range g.Milestones {
		m := &g.Milestones[i]
		reached := a.Value >= m.TargetValue
		if reached && m.CompletedAt == nil {
			stamped := now
			m.CompletedAt = &stamped
		}
		m.Completed = reached
	}

	return next
}

func habitIndex(habits []Habit, id string) int {
	for i := range habits {
		if habits[i].ID == id {
			return i
		}
	}
	return -1
}

func goalIndex(goals []Goal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}

func removeDate(dates []string, date string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != date {
			out = append(out, d)
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
