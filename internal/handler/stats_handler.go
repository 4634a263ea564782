package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetDailyProgress 返回日期区间内逐日完成度，供热力图使用
// 缺省区间为截止今天的过去一年
func (a *API) GetDailyProgress(c *gin.Context) {
	now := time.Now().In(time.Local)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := end.AddDate(0, 0, -364)

	if raw := c.Query("start"); raw != "" {
		parsed, ok := parseDate(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, "无效的开始日期")
			return
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, ok := parseDate(raw)
		if !ok {
			respondError(c, http.StatusBadRequest, "无效的结束日期")
			return
		}
		end = parsed
	}

	if end.Before(start) {
		respondError(c, http.StatusBadRequest, "结束日期不能早于开始日期")
		return
	}

	progress := a.state.DailyProgress(start, end)
	c.JSON(http.StatusOK, gin.H{
		"range":    gin.H{"start": start.Format(dateFormat), "end": end.Format(dateFormat)},
		"progress": progress,
	})
}

// GetWeeklyStats 返回最近 12 周的完成统计
func (a *API) GetWeeklyStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"weeks": a.state.WeeklyStats()})
}

// GetMonthlyStats 返回按自然月聚合的打卡统计
func (a *API) GetMonthlyStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"months": a.state.MonthlyStats()})
}

// GetOverview 返回全局游戏化概览
func (a *API) GetOverview(c *gin.Context) {
	state := a.state.State()

	c.JSON(http.StatusOK, gin.H{
		"total_xp":           state.TotalXP,
		"user_level":         state.UserLevel,
		"current_streak":     state.CurrentStreak,
		"best_streak":        state.BestStreak,
		"productivity_score": state.ProductivityScore,
		"habit_count":        len(state.Habits),
		"goal_count":         len(state.Goals),
		"badge_count":        len(state.Badges),
	})
}

// ListBadges 返回已解锁的徽章列表
func (a *API) ListBadges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"badges": a.state.Badges()})
}
