package tracker

import (
	"math"
	"sort"
	"time"
)

// DailyProgress 表示某一天的整体完成度
type DailyProgress struct {
	Date       string `json:"date"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}

// WeeklyStat 汇总一周内所有习惯的完成/漏打情况
type WeeklyStat struct {
	WeekStart      string `json:"weekStart"`
	Completed      int    `json:"completed"`
	Missed         int    `json:"missed"`
	CompletionRate int    `json:"completionRate"`
}

// MonthlyStat 汇总某个自然月的打卡数据
// AverageStreak 取当前连胜的即时均值，不是历史快照
// CompletionRate 沿用固定 30 天分母的估算口径
type MonthlyStat struct {
	Month            string  `json:"month"`
	TotalCompletions int     `json:"totalCompletions"`
	AverageStreak    float64 `json:"averageStreak"`
	BestHabit        string  `json:"bestHabit"`
	CompletionRate   float64 `json:"completionRate"`
}

// HabitStat 是单个习惯的分析指标
type HabitStat struct {
	CompletionRate float64 `json:"completionRate"`
	WeeklyAverage  float64 `json:"weeklyAverage"`
	MonthlyTrend   []int   `json:"monthlyTrend"`
}

// DailyProgressRange 按天统计 [start, end] 区间内的完成度，按日期升序返回
func DailyProgressRange(s State, start, end time.Time) []DailyProgress {
	progress := []DailyProgress{}
	total := len(s.Habits)

	for d := truncateToDay(start); !d.After(truncateToDay(end)); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(DateLayout)
		completed := completedOn(s.Habits, dateStr)

		percentage := 0
		if total > 0 {
			percentage = int(math.Round(float64(completed) / float64(total) * 100))
		}

		progress = append(progress, DailyProgress{
			Date:       dateStr,
			Completed:  completed,
			Total:      total,
			Percentage: percentage,
		})
	}

	return progress
}

// WeeklyStats 返回最近 12 周的完成统计，最早的一周在前
// 没有任何习惯时仍返回 12 条记录，完成率为 0
func WeeklyStats(s State, now time.Time) []WeeklyStat {
	stats := make([]WeeklyStat, 0, 12)
	today := truncateToDay(now)
	total := len(s.Habits)

	for i := 0; i < 12; i++ {
		weekStart := today.AddDate(0, 0, -7*i)
		completed := 0
		missed := 0

		for d := 0; d < 7; d++ {
			dateStr := weekStart.AddDate(0, 0, d).Format(DateLayout)
			dayCompleted := completedOn(s.Habits, dateStr)
			completed += dayCompleted
			missed += total - dayCompleted
		}

		rate := 0
		if completed+missed > 0 {
			rate = int(math.Round(float64(completed) / float64(completed+missed) * 100))
		}

		stats = append(stats, WeeklyStat{
			WeekStart:      weekStart.Format(DateLayout),
			Completed:      completed,
			Missed:         missed,
			CompletionRate: rate,
		})
	}

	// 反转为时间升序
	for i, j := 0, len(stats)-1; i < j; i, j = i+1, j-1 {
		stats[i], stats[j] = stats[j], stats[i]
	}

	return stats
}

// MonthlyStatsAll 按自然月聚合所有打卡记录，只包含有打卡的月份
// 按月份升序排列，至多返回最近 12 个月
func MonthlyStatsAll(s State) []MonthlyStat {
	totals := make(map[string]int)
	for _, h := range s.Habits {
		for _, d := range h.CompletedDates {
			if len(d) >= 7 {
				totals[d[:7]]++
			}
		}
	}

	months := make([]string, 0, len(totals))
	for month := range totals {
		months = append(months, month)
	}
	sort.Strings(months)

	if len(months) > 12 {
		months = months[len(months)-12:]
	}

	averageStreak := 0.0
	bestHabit := ""
	if len(s.Habits) > 0 {
		streakSum := 0
		best := s.Habits[0]
		for _, h := range s.Habits {
			streakSum += h.CurrentStreak
			if h.TotalCompletions > best.TotalCompletions {
				best = h
			}
		}
		averageStreak = float64(streakSum) / float64(len(s.Habits))
		bestHabit = best.Name
	}

	stats := make([]MonthlyStat, 0, len(months))
	for _, month := range months {
		stats = append(stats, MonthlyStat{
			Month:            month,
			TotalCompletions: totals[month],
			AverageStreak:    averageStreak,
			BestHabit:        bestHabit,
			CompletionRate:   float64(totals[month]) / (float64(len(s.Habits)) * 30) * 100,
		})
	}

	return stats
}

// HabitStatsFor 计算单个习惯的完成率、周均次数和近 6 个月趋势
// 习惯不存在时返回零值
func HabitStatsFor(s State, habitID string, now time.Time) HabitStat {
	idx := habitIndex(s.Habits, habitID)
	if idx < 0 {
		return HabitStat{MonthlyTrend: []int{}}
	}
	h := s.Habits[idx]

	days := int(now.Sub(h.CreatedAt).Hours() / 24)
	if days < 1 {
		days = 1
	}

	weeks := days / 7
	if weeks < 1 {
		weeks = 1
	}

	trend := make([]int, 0, 6)
	for i := 5; i >= 0; i-- {
		month := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		prefix := month.Format("2006-01")
		count := 0
		for _, d := range h.CompletedDates {
			if len(d) >= 7 && d[:7] == prefix {
				count++
			}
		}
		trend = append(trend, count)
	}

	return HabitStat{
		CompletionRate: float64(h.TotalCompletions) / float64(days) * 100,
		WeeklyAverage:  float64(h.TotalCompletions) / float64(weeks),
		MonthlyTrend:   trend,
	}
}

func completedOn(habits []Habit, date string) int {
	count := 0
	for i := range habits {
		if habits[i].HasCompleted(date) {
			count++
		}
	}
	return count
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
