package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streaklog/internal/service"
	"github.com/streaklog/internal/tracker"
)

const dateFormat = "2006-01-02"

type habitPayload struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Difficulty   string `json:"difficulty"`
	Frequency    string `json:"frequency"`
	TargetStreak int    `json:"target_streak"`
	Color        string `json:"color"`
	Icon         string `json:"icon"`
}

type completionPayload struct {
	Date string `json:"date"`
}

// ListHabits 返回习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	state := a.state.State()
	c.JSON(http.StatusOK, gin.H{"habits": state.Habits})
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	habit, err := a.state.Habit(c.Param("id"))
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habit})
}

// CreateHabit 创建习惯
func (a *API) CreateHabit(c *gin.Context) {
	input, ok := parseHabitInput(c)
	if !ok {
		return
	}

	habit, err := a.state.CreateHabit(input)
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建习惯失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habit})
}

// UpdateHabit 更新习惯的可配置字段，累计数据保持不变
func (a *API) UpdateHabit(c *gin.Context) {
	habit, err := a.state.Habit(c.Param("id"))
	if err != nil {
		handleStateError(c, err)
		return
	}

	input, ok := parseHabitInput(c)
	if !ok {
		return
	}

	habit.Name = input.Name
	habit.Category = input.Category
	habit.Difficulty = input.Difficulty
	habit.Frequency = input.Frequency
	habit.TargetStreak = input.TargetStreak
	habit.Color = input.Color
	habit.Icon = input.Icon

	updated, err := a.state.UpdateHabit(habit)
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": updated})
}

// DeleteHabit 删除习惯
func (a *API) DeleteHabit(c *gin.Context) {
	if err := a.state.DeleteHabit(c.Param("id")); err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// CompleteHabit 在指定日期为习惯打卡，同日重复打卡为幂等操作
func (a *API) CompleteHabit(c *gin.Context) {
	date, ok := a.parseCompletionDate(c)
	if !ok {
		return
	}

	habit, err := a.state.CompleteHabit(c.Param("id"), date)
	if err != nil {
		handleStateError(c, err)
		return
	}

	state := a.state.State()
	c.JSON(http.StatusOK, gin.H{
		"habit":              habit,
		"total_xp":           state.TotalXP,
		"user_level":         state.UserLevel,
		"productivity_score": state.ProductivityScore,
	})
}

// UndoCompletion 撤销指定日期的打卡
func (a *API) UndoCompletion(c *gin.Context) {
	date, ok := a.parseCompletionDate(c)
	if !ok {
		return
	}

	habit, err := a.state.UndoCompletion(c.Param("id"), date)
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habit})
}

// GetHabitStats 返回单个习惯的分析指标
func (a *API) GetHabitStats(c *gin.Context) {
	stats, err := a.state.HabitStats(c.Param("id"))
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (a *API) parseCompletionDate(c *gin.Context) (string, bool) {
	var payload completionPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return "", false
	}

	if strings.TrimSpace(payload.Date) == "" {
		respondError(c, http.StatusBadRequest, "请选择打卡日期")
		return "", false
	}

	date, ok := normalizeDateParam(payload.Date)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return "", false
	}

	return date, true
}

func parseHabitInput(c *gin.Context) (service.HabitInput, bool) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.HabitInput{}, false
	}

	if strings.TrimSpace(payload.Name) == "" {
		respondError(c, http.StatusBadRequest, "习惯名称不能为空")
		return service.HabitInput{}, false
	}

	if payload.TargetStreak <= 0 {
		respondError(c, http.StatusBadRequest, "目标连胜应为正数")
		return service.HabitInput{}, false
	}

	return service.HabitInput{
		Name:         payload.Name,
		Category:     tracker.Category(payload.Category),
		Difficulty:   tracker.Difficulty(payload.Difficulty),
		Frequency:    tracker.Frequency(payload.Frequency),
		TargetStreak: payload.TargetStreak,
		Color:        payload.Color,
		Icon:         payload.Icon,
	}, true
}

func handleStateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrGoalNotFound):
		respondError(c, http.StatusNotFound, "目标不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
