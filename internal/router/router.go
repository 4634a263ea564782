package router

import (
	"github.com/gin-gonic/gin"
	"github.com/streaklog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/habits", api.ListHabits)
		apiGroup.POST("/habits", api.CreateHabit)
		apiGroup.GET("/habits/:id", api.GetHabit)
		apiGroup.PUT("/habits/:id", api.UpdateHabit)
		apiGroup.DELETE("/habits/:id", api.DeleteHabit)
		apiGroup.POST("/habits/:id/complete", api.CompleteHabit)
		apiGroup.POST("/habits/:id/undo", api.UndoCompletion)
		apiGroup.GET("/habits/:id/stats", api.GetHabitStats)

		apiGroup.GET("/goals", api.ListGoals)
		apiGroup.POST("/goals", api.CreateGoal)
		apiGroup.GET("/goals/:id", api.GetGoal)
		apiGroup.PUT("/goals/:id", api.UpdateGoal)
		apiGroup.DELETE("/goals/:id", api.DeleteGoal)
		apiGroup.PUT("/goals/:id/progress", api.UpdateGoalProgress)

		apiGroup.GET("/stats/daily", api.GetDailyProgress)
		apiGroup.GET("/stats/weekly", api.GetWeeklyStats)
		apiGroup.GET("/stats/monthly", api.GetMonthlyStats)
		apiGroup.GET("/stats/overview", api.GetOverview)

		apiGroup.GET("/badges", api.ListBadges)
	}

	return r
}
