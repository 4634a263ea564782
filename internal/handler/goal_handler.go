package handler

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/streaklog/internal/service"
	"github.com/streaklog/internal/tracker"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderMarkdown 将目标描述渲染为净化后的 HTML
func renderMarkdown(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}

	return sanitizer.Sanitize(buf.String())
}

type goalPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	TargetValue float64  `json:"target_value"`
	Unit        string   `json:"unit"`
	Deadline    string   `json:"deadline"`
	Category    string   `json:"category"`
	Milestones  []string `json:"milestones"`
}

type goalProgressPayload struct {
	Value float64 `json:"value"`
}

func goalToPayload(goal tracker.Goal) gin.H {
	return gin.H{
		"goal":             goal,
		"description_html": renderMarkdown(goal.Description),
	}
}

// ListGoals 返回目标列表，描述附带渲染后的 HTML
func (a *API) ListGoals(c *gin.Context) {
	state := a.state.State()

	items := make([]gin.H, 0, len(state.Goals))
	for _, goal := range state.Goals {
		items = append(items, goalToPayload(goal))
	}

	c.JSON(http.StatusOK, gin.H{"goals": items})
}

// GetGoal 返回单个目标详情
func (a *API) GetGoal(c *gin.Context) {
	goal, err := a.state.Goal(c.Param("id"))
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, goalToPayload(goal))
}

// CreateGoal 创建目标并按标题列表生成里程碑
func (a *API) CreateGoal(c *gin.Context) {
	input, ok := parseGoalInput(c)
	if !ok {
		return
	}

	goal, err := a.state.CreateGoal(input)
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建目标失败")
		return
	}

	c.JSON(http.StatusOK, goalToPayload(goal))
}

// UpdateGoal 更新目标的可配置字段，进度与里程碑保持不变
func (a *API) UpdateGoal(c *gin.Context) {
	goal, err := a.state.Goal(c.Param("id"))
	if err != nil {
		handleStateError(c, err)
		return
	}

	input, ok := parseGoalInput(c)
	if !ok {
		return
	}

	goal.Title = input.Title
	goal.Description = input.Description
	goal.Type = input.Type
	goal.Unit = input.Unit
	goal.Deadline = input.Deadline
	goal.Category = input.Category

	updated, err := a.state.UpdateGoal(goal)
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, goalToPayload(updated))
}

// DeleteGoal 删除目标
func (a *API) DeleteGoal(c *gin.Context) {
	if err := a.state.DeleteGoal(c.Param("id")); err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// UpdateGoalProgress 更新目标进度，状态与里程碑由引擎推导
func (a *API) UpdateGoalProgress(c *gin.Context) {
	var payload goalProgressPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	goal, err := a.state.UpdateGoalProgress(c.Param("id"), payload.Value)
	if err != nil {
		handleStateError(c, err)
		return
	}

	c.JSON(http.StatusOK, goalToPayload(goal))
}

func parseGoalInput(c *gin.Context) (service.GoalInput, bool) {
	var payload goalPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return service.GoalInput{}, false
	}

	if strings.TrimSpace(payload.Title) == "" {
		respondError(c, http.StatusBadRequest, "目标标题不能为空")
		return service.GoalInput{}, false
	}

	if payload.TargetValue <= 0 {
		respondError(c, http.StatusBadRequest, "目标值应为正数")
		return service.GoalInput{}, false
	}

	var deadline time.Time
	if strings.TrimSpace(payload.Deadline) != "" {
		parsed, ok := parseDate(payload.Deadline)
		if !ok {
			respondError(c, http.StatusBadRequest, "无效的截止日期")
			return service.GoalInput{}, false
		}
		deadline = parsed
	}

	return service.GoalInput{
		Title:       payload.Title,
		Description: payload.Description,
		Type:        tracker.GoalType(payload.Type),
		TargetValue: payload.TargetValue,
		Unit:        payload.Unit,
		Deadline:    deadline,
		Category:    tracker.Category(payload.Category),
		Milestones:  payload.Milestones,
	}, true
}
