package tracker

import "time"

// DateLayout 是打卡日期的标准格式（YYYY-MM-DD）
const DateLayout = "2006-01-02"

// Difficulty 描述习惯难度，决定每次打卡获得的经验值
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Frequency 描述习惯的执行频率，仅作展示用途，引擎不做强制
type Frequency string

const (
	FrequencyDaily  Frequency = "Daily"
	FrequencyWeekly Frequency = "Weekly"
)

// Category 用于习惯和目标的分类筛选
type Category string

const (
	CategoryHealth       Category = "Health"
	CategoryFitness      Category = "Fitness"
	CategoryStudy        Category = "Study"
	CategoryWork         Category = "Work"
	CategoryMentalHealth Category = "Mental Health"
	CategoryProductivity Category = "Productivity"
	CategoryOther        Category = "Other"
)

// GoalType 区分月度/年度目标，仅作展示用途
type GoalType string

const (
	GoalTypeMonthly GoalType = "Monthly"
	GoalTypeYearly  GoalType = "Yearly"
)

// GoalStatus 描述目标状态，Completed 由进度更新自动推导
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "Active"
	GoalStatusCompleted GoalStatus = "Completed"
	GoalStatusAbandoned GoalStatus = "Abandoned"
)

// Habit 定义习惯及其累计的游戏化状态
// CompletedDates 按打卡顺序保存 YYYY-MM-DD 字符串，同一天至多出现一次
// BestStreak 只增不减，记录历史最长连胜
type Habit struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Frequency        Frequency  `json:"frequency"`
	TargetStreak     int        `json:"targetStreak"`
	CurrentStreak    int        `json:"currentStreak"`
	BestStreak       int        `json:"bestStreak"`
	Level            int        `json:"level"`
	XP               int        `json:"xp"`
	XPToNextLevel    int        `json:"xpToNextLevel"`
	TotalCompletions int        `json:"totalCompletions"`
	CreatedAt        time.Time  `json:"createdAt"`
	CompletedDates   []string   `json:"completedDates"`
	Color            string     `json:"color"`
	Icon             string     `json:"icon"`
}

// HasCompleted 判断习惯在指定日期是否已打卡
func (h Habit) HasCompleted(date string) bool {
	for _, d := range h.CompletedDates {
		if d == date {
			return true
		}
	}
	return false
}

// Milestone 是目标进度上的一个阈值检查点
// CompletedAt 在首次越过阈值时写入，进度回落也不会清除
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	TargetValue float64    `json:"targetValue"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Goal 定义带截止日期的数值型目标
type Goal struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Type         GoalType    `json:"type"`
	TargetValue  float64     `json:"targetValue"`
	CurrentValue float64     `json:"currentValue"`
	Unit         string      `json:"unit"`
	Deadline     time.Time   `json:"deadline"`
	Status       GoalStatus  `json:"status"`
	Milestones   []Milestone `json:"milestones"`
	CreatedAt    time.Time   `json:"createdAt"`
	Category     Category    `json:"category"`
}

// Badge 是可解锁的成就徽章，重复解锁同一 id 为空操作
type Badge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Condition   string     `json:"condition"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// State 是整个应用的聚合状态，同时也是持久化文档的形状
// CurrentStreak/BestStreak 指全局连胜：连续若干天所有习惯都完成打卡
type State struct {
	Habits            []Habit `json:"habits"`
	Goals             []Goal  `json:"goals"`
	Badges            []Badge `json:"badges"`
	TotalXP           int     `json:"totalXP"`
	UserLevel         int     `json:"userLevel"`
	CurrentStreak     int     `json:"currentStreak"`
	BestStreak        int     `json:"bestStreak"`
	ProductivityScore int     `json:"productivityScore"`
}

// InitialState 返回零值起始状态
func InitialState() State {
	return State{
		Habits:    []Habit{},
		Goals:     []Goal{},
		Badges:    []Badge{},
		UserLevel: 1,
	}
}

// Clone 返回状态的深拷贝，保证 Apply 不会修改输入
func (s State) Clone() State {
	next := s

	next.Habits = make([]Habit, len(s.Habits))
	for i, h := range s.Habits {
		next.Habits[i] = cloneHabit(h)
	}

	next.Goals = make([]Goal, len(s.Goals))
	for i, g := range s.Goals {
		next.Goals[i] = cloneGoal(g)
	}

	next.Badges = make([]Badge, len(s.Badges))
	for i, b := range s.Badges {
		next.Badges[i] = cloneBadge(b)
	}

	return next
}

func cloneHabit(h Habit) Habit {
	out := h
	out.CompletedDates = append([]string(nil), h.CompletedDates...)
	return out
}

func cloneGoal(g Goal) Goal {
	out := g
	out.Milestones = make([]Milestone, len(g.Milestones))
	for i, m := range g.Milestones {
		out.Milestones[i] = m
		if m.CompletedAt != nil {
			t := *m.CompletedAt
			out.Milestones[i].CompletedAt = &t
		}
	}
	return out
}

func cloneBadge(b Badge) Badge {
	out := b
	if b.UnlockedAt != nil {
		t := *b.UnlockedAt
		out.UnlockedAt = &t
	}
	return out
}
