package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streaklog/internal/db"
	"github.com/streaklog/internal/tracker"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrGoalNotFound 在指定目标不存在时返回
	ErrGoalNotFound = errors.New("goal not found")
)

// HabitInput 定义创建/更新习惯时可配置的字段
type HabitInput struct {
	Name         string
	Category     tracker.Category
	Difficulty   tracker.Difficulty
	Frequency    tracker.Frequency
	TargetStreak int
	Color        string
	Icon         string
}

// GoalInput 定义创建目标时可配置的字段
// Milestones 只接收标题列表，阈值按目标值均分生成
type GoalInput struct {
	Title       string
	Description string
	Type        tracker.GoalType
	TargetValue float64
	Unit        string
	Deadline    time.Time
	Category    tracker.Category
	Milestones  []string
}

// StateService 持有内存中的聚合状态，是所有变更的唯一入口
// 每次变更都经过 tracker.Apply 计算下一个状态，随后把完整文档
// 写回快照槽位；互斥锁保证变更之间不会交错
type StateService struct {
	db     *gorm.DB
	badges *BadgeService

	mu    sync.Mutex
	state tracker.State
	now   func() time.Time
}

// NewStateService 构造 StateService 并立即从快照槽位恢复状态。
// 槽位缺失或文档损坏时回退到零值初始状态，不向上抛错。
func NewStateService(gdb *gorm.DB) *StateService {
	s := &StateService{
		db:     gdb,
		badges: NewBadgeService(),
		now:    time.Now,
	}
	s.state = s.loadSnapshot()
	return s
}

func (s *StateService) loadSnapshot() tracker.State {
	var snapshot db.StateSnapshot
	err := s.db.Where("key = ?", db.SnapshotKeyTrackerState).First(&snapshot).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("load state snapshot: %v", err)
		}
		return tracker.InitialState()
	}

	var state tracker.State
	if err := json.Unmarshal([]byte(snapshot.Value), &state); err != nil {
		log.Printf("parse state snapshot, falling back to initial state: %v", err)
		return tracker.InitialState()
	}

	// 反序列化后补齐空集合，避免 nil 切片泄漏到文档里
	if state.Habits == nil {
		state.Habits = []tracker.Habit{}
	}
	if state.Goals == nil {
		state.Goals = []tracker.Goal{}
	}
	if state.Badges == nil {
		state.Badges = []tracker.Badge{}
	}

	return state
}

// persist 把当前状态写回快照槽位。
// 写入失败只记录日志，不影响已完成的内存变更。
func (s *StateService) persist() {
	payload, err := json.Marshal(s.state)
	if err != nil {
		log.Printf("serialize state snapshot: %v", err)
		return
	}

	snapshot := db.StateSnapshot{
		Key:   db.SnapshotKeyTrackerState,
		Value: string(payload),
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&snapshot).Error; err != nil {
		log.Printf("persist state snapshot: %v", err)
	}
}

func (s *StateService) dispatch(action tracker.Action) {
	s.state = tracker.Apply(s.state, action, s.now())
	s.persist()
}

// State 返回当前状态的深拷贝
func (s *StateService) State() tracker.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Habit 按 id 查询习惯
func (s *StateService) Habit(id string) (tracker.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habitLocked(id)
}

func (s *StateService) habitLocked(id string) (tracker.Habit, error) {
	for _, h := range s.state.Habits {
		if h.ID == id {
			return h, nil
		}
	}
	return tracker.Habit{}, ErrHabitNotFound
}

// Goal 按 id 查询目标
func (s *StateService) Goal(id string) (tracker.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goalLocked(id)
}

func (s *StateService) goalLocked(id string) (tracker.Goal, error) {
	for _, g := range s.state.Goals {
		if g.ID == id {
			return g, nil
		}
	}
	return tracker.Goal{}, ErrGoalNotFound
}

// CreateHabit 新建习惯：生成 id 和创建时间，计数全部归零
func (s *StateService) CreateHabit(input HabitInput) (tracker.Habit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return tracker.Habit{}, fmt.Errorf("habit name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	habit := tracker.Habit{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(input.Name),
		Category:       input.Category,
		Difficulty:     input.Difficulty,
		Frequency:      input.Frequency,
		TargetStreak:   input.TargetStreak,
		Level:          1,
		XPToNextLevel:  tracker.XPRequiredForLevel(1),
		CreatedAt:      s.now(),
		CompletedDates: []string{},
		Color:          input.Color,
		Icon:           input.Icon,
	}

	s.dispatch(tracker.AddHabit{Habit: habit})
	return habit, nil
}

// UpdateHabit 按 id 整体替换习惯
func (s *StateService) UpdateHabit(habit tracker.Habit) (tracker.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.habitLocked(habit.ID); err != nil {
		return tracker.Habit{}, err
	}

	s.dispatch(tracker.UpdateHabit{Habit: habit})
	return s.habitLocked(habit.ID)
}

// DeleteHabit 删除习惯；按既有口径不回溯调整全局经验与连胜
func (s *StateService) DeleteHabit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.habitLocked(id); err != nil {
		return err
	}

	s.dispatch(tracker.DeleteHabit{ID: id})
	return nil
}

// CompleteHabit 在指定日期打卡，并在之后评估徽章解锁
func (s *StateService) CompleteHabit(id, date string) (tracker.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.habitLocked(id); err != nil {
		return tracker.Habit{}, err
	}

	s.dispatch(tracker.CompleteHabit{HabitID: id, Date: date})

	for _, badge := range s.badges.Evaluate(s.state) {
		s.dispatch(tracker.UnlockBadge{Badge: badge})
	}

	return s.habitLocked(id)
}

// UndoCompletion 撤销指定日期的打卡
func (s *StateService) UndoCompletion(id, date string) (tracker.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.habitLocked(id); err != nil {
		return tracker.Habit{}, err
	}

	s.dispatch(tracker.UndoCompletion{HabitID: id, Date: date})
	return s.habitLocked(id)
}

// CreateGoal 新建目标并按标题列表均分生成里程碑阈值
func (s *StateService) CreateGoal(input GoalInput) (tracker.Goal, error) {
	if strings.TrimSpace(input.Title) == "" {
		return tracker.Goal{}, fmt.Errorf("goal title is required")
	}
	if input.TargetValue <= 0 {
		return tracker.Goal{}, fmt.Errorf("goal target value must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	milestones := make([]tracker.Milestone, 0, len(input.Milestones))
	for i, title := range input.Milestones {
		milestones = append(milestones, tracker.Milestone{
			ID:          uuid.NewString(),
			Title:       strings.TrimSpace(title),
			TargetValue: math.Round(input.TargetValue / float64(len(input.Milestones)) * float64(i+1)),
		})
	}

	goal := tracker.Goal{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Type:        input.Type,
		TargetValue: input.TargetValue,
		Unit:        input.Unit,
		Deadline:    input.Deadline,
		Status:      tracker.GoalStatusActive,
		Milestones:  milestones,
		CreatedAt:   s.now(),
		Category:    input.Category,
	}

	s.dispatch(tracker.AddGoal{Goal: goal})
	return goal, nil
}

// UpdateGoal 按 id 整体替换目标
func (s *StateService) UpdateGoal(goal tracker.Goal) (tracker.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.goalLocked(goal.ID); err != nil {
		return tracker.Goal{}, err
	}

	s.dispatch(tracker.UpdateGoal{Goal: goal})
	return s.goalLocked(goal.ID)
}

// DeleteGoal 删除目标
func (s *StateService) DeleteGoal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.goalLocked(id); err != nil {
		return err
	}

	s.dispatch(tracker.DeleteGoal{ID: id})
	return nil
}

// UpdateGoalProgress 更新目标进度，引擎负责收敛与里程碑判定
func (s *StateService) UpdateGoalProgress(id string, value float64) (tracker.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.goalLocked(id); err != nil {
		return tracker.Goal{}, err
	}

	s.dispatch(tracker.UpdateGoalProgress{GoalID: id, Value: value})
	return s.goalLocked(id)
}

// Badges 返回已解锁的徽章列表
func (s *StateService) Badges() []tracker.Badge {
	return s.State().Badges
}

// DailyProgress 返回区间内逐日完成度
func (s *StateService) DailyProgress(start, end time.Time) []tracker.DailyProgress {
	return tracker.DailyProgressRange(s.State(), start, end)
}

// WeeklyStats 返回最近 12 周的完成统计
func (s *StateService) WeeklyStats() []tracker.WeeklyStat {
	return tracker.WeeklyStats(s.State(), s.now())
}

// MonthlyStats 返回按自然月聚合的打卡统计
func (s *StateService) MonthlyStats() []tracker.MonthlyStat {
	return tracker.MonthlyStatsAll(s.State())
}

// HabitStats 返回单个习惯的分析指标
func (s *StateService) HabitStats(id string) (tracker.HabitStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.habitLocked(id); err != nil {
		return tracker.HabitStat{}, err
	}

	return tracker.HabitStatsFor(s.state, id, s.now()), nil
}
