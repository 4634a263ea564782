package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/streaklog/internal/db"
	"github.com/streaklog/internal/tracker"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.StateSnapshot{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb
	api := NewAPI(gdb)

	return api, func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func jsonContext(t *testing.T, method, target string, payload any) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func createTestHabit(t *testing.T, api *API, name string, difficulty tracker.Difficulty) tracker.Habit {
	t.Helper()

	c, w := jsonContext(t, http.MethodPost, "/api/habits", map[string]any{
		"name":          name,
		"category":      "Study",
		"difficulty":    string(difficulty),
		"frequency":     "Daily",
		"target_streak": 7,
	})

	api.CreateHabit(c)
	if w.Code != http.StatusOK {
		t.Fatalf("CreateHabit returned status %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Habit tracker.Habit `json:"habit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode habit: %v", err)
	}
	return resp.Habit
}

func TestCreateHabitValidation(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	c, w := jsonContext(t, http.MethodPost, "/api/habits", map[string]any{"name": "", "target_streak": 7})
	api.CreateHabit(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", w.Code)
	}

	c, w = jsonContext(t, http.MethodPost, "/api/habits", map[string]any{"name": "晨跑", "target_streak": 0})
	api.CreateHabit(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive target streak, got %d", w.Code)
	}
}

func TestCompleteHabitFlow(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := createTestHabit(t, api, "阅读", tracker.DifficultyMedium)

	c, w := jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/complete", map[string]any{"date": "2024-03-01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.CompleteHabit(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Habit   tracker.Habit `json:"habit"`
		TotalXP int           `json:"total_xp"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Habit.XP != 20 || resp.Habit.CurrentStreak != 1 {
		t.Fatalf("unexpected habit after completion: %+v", resp.Habit)
	}
	if resp.TotalXP != 20 {
		t.Fatalf("expected total xp 20, got %d", resp.TotalXP)
	}
}

func TestCompleteHabitRejectsBadInput(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := createTestHabit(t, api, "冥想", tracker.DifficultyEasy)

	// 未知习惯
	c, w := jsonContext(t, http.MethodPost, "/api/habits/x/complete", map[string]any{"date": "2024-03-01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: "不存在"}}
	api.CompleteHabit(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown habit, got %d", w.Code)
	}

	// 非法日期
	c, w = jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/complete", map[string]any{"date": "2024/03/01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.CompleteHabit(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed date, got %d", w.Code)
	}

	// 缺少日期
	c, w = jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/complete", map[string]any{})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.CompleteHabit(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing date, got %d", w.Code)
	}
}

func TestUndoCompletionEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := createTestHabit(t, api, "背单词", tracker.DifficultyHard)

	c, _ := jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/complete", map[string]any{"date": "2024-03-01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.CompleteHabit(c)

	c, w := jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/undo", map[string]any{"date": "2024-03-01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.UndoCompletion(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Habit tracker.Habit `json:"habit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Habit.XP != 0 || resp.Habit.TotalCompletions != 0 {
		t.Fatalf("undo did not reset counters: %+v", resp.Habit)
	}
}

func TestUpdateHabitKeepsProgress(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := createTestHabit(t, api, "晨跑", tracker.DifficultyEasy)

	c, _ := jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/complete", map[string]any{"date": "2024-03-01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.CompleteHabit(c)

	c, w := jsonContext(t, http.MethodPut, "/api/habits/"+habit.ID, map[string]any{
		"name":          "夜跑",
		"category":      "Fitness",
		"difficulty":    "Hard",
		"frequency":     "Daily",
		"target_streak": 14,
	})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.UpdateHabit(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Habit tracker.Habit `json:"habit"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Habit.Name != "夜跑" || resp.Habit.TargetStreak != 14 {
		t.Fatalf("update did not apply: %+v", resp.Habit)
	}
	if resp.Habit.TotalCompletions != 1 || resp.Habit.XP != 10 {
		t.Fatalf("update must keep progress counters: %+v", resp.Habit)
	}
}

func TestDeleteHabitEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := createTestHabit(t, api, "晨跑", tracker.DifficultyEasy)

	c, w := jsonContext(t, http.MethodDelete, "/api/habits/"+habit.ID, nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.DeleteHabit(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	c, w = jsonContext(t, http.MethodGet, "/api/habits/"+habit.ID, nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.GetHabit(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestGetHabitStatsEndpoint(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := createTestHabit(t, api, "晨跑", tracker.DifficultyEasy)

	c, _ := jsonContext(t, http.MethodPost, "/api/habits/"+habit.ID+"/complete", map[string]any{"date": "2024-03-01"})
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.CompleteHabit(c)

	c, w := jsonContext(t, http.MethodGet, "/api/habits/"+habit.ID+"/stats", nil)
	c.Params = gin.Params{gin.Param{Key: "id", Value: habit.ID}}
	api.GetHabitStats(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	stats, ok := body["stats"].(map[string]any)
	if !ok {
		t.Fatalf("missing stats object: %v", body)
	}
	trend, ok := stats["monthlyTrend"].([]any)
	if !ok || len(trend) != 6 {
		t.Fatalf("expected 6 trend entries, got %v", stats["monthlyTrend"])
	}
}
