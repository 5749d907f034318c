package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"focustask/internal/cache"
	"focustask/internal/config"
	"focustask/internal/db"
	"focustask/internal/gamification"
	"focustask/internal/mailer"
	"focustask/internal/ratelimit"
	"focustask/internal/security"
	"focustask/internal/settings"
	"focustask/internal/tasks"
	"focustask/internal/users"
)

func newTestRouter(t *testing.T, name string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if errOpen != nil {
		t.Fatalf("open database: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	issuer, errIssuer := security.NewTokenIssuer("test-secret", time.Hour)
	if errIssuer != nil {
		t.Fatalf("token issuer: %v", errIssuer)
	}

	engine := gamification.NewEngine(conn)
	router := gin.New()
	RegisterRoutes(router, Deps{
		DB:       conn,
		Issuer:   issuer,
		Users:    users.NewService(conn, issuer, cache.New(config.RedisConfig{})),
		Tasks:    tasks.NewService(conn, engine),
		Settings: settings.NewService(conn, mailer.NewSender(config.SMTPConfig{})),
		Engine:   engine,
		Limiter:  ratelimit.NewManager(config.RedisConfig{}, nil, nil),
		Config:   config.Config{RatePerSec: 100},
	})
	return router
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	var env envelope
	if errDecode := json.Unmarshal(recorder.Body.Bytes(), &env); errDecode != nil {
		t.Fatalf("decode response %q: %v", recorder.Body.String(), errDecode)
	}
	return recorder, env
}

func registerUser(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	recorder, env := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "motdepasse",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201 (%s)", recorder.Code, recorder.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if errDecode := json.Unmarshal(env.Data, &data); errDecode != nil {
		t.Fatalf("decode register data: %v", errDecode)
	}
	if data.Token == "" {
		t.Fatal("register returned no token")
	}
	return data.Token
}

func TestRoutes_AuthRequired(t *testing.T) {
	router := newTestRouter(t, "apiauth")

	recorder, env := doJSON(t, router, http.MethodGet, "/api/auth/me", "", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if env.Status != "error" || env.StatusCode != http.StatusUnauthorized {
		t.Fatalf("envelope = %+v, want error 401", env)
	}

	recorder, _ = doJSON(t, router, http.MethodGet, "/api/auth/me", "not-a-token", nil)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", recorder.Code)
	}
}

func TestRoutes_PublicCatalogs(t *testing.T) {
	router := newTestRouter(t, "apipublic")

	recorder, env := doJSON(t, router, http.MethodGet, "/api/achievements", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("achievements status = %d, want 200", recorder.Code)
	}
	var achData struct {
		Achievements []gin.H `json:"achievements"`
	}
	if errDecode := json.Unmarshal(env.Data, &achData); errDecode != nil {
		t.Fatalf("decode achievements: %v", errDecode)
	}
	if len(achData.Achievements) == 0 {
		t.Fatal("achievement catalog is empty")
	}

	recorder, _ = doJSON(t, router, http.MethodGet, "/api/rewards", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("rewards status = %d, want 200", recorder.Code)
	}
	recorder, _ = doJSON(t, router, http.MethodGet, "/api/users/leaderboard", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d, want 200", recorder.Code)
	}
}

func TestRoutes_TaskCompletionFlow(t *testing.T) {
	router := newTestRouter(t, "apiflow")
	token := registerUser(t, router, "alice")

	today := time.Now().UTC().Format("2006-01-02")
	recorder, env := doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{
		"name":       "lire un chapitre",
		"difficulty": "facile",
		"date":       today,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create task status = %d (%s)", recorder.Code, recorder.Body.String())
	}
	var created struct {
		Task struct {
			ID     uint64 `json:"id"`
			Status string `json:"status"`
			Date   string `json:"date"`
		} `json:"task"`
	}
	if errDecode := json.Unmarshal(env.Data, &created); errDecode != nil {
		t.Fatalf("decode created task: %v", errDecode)
	}
	if created.Task.Status != "pending" || created.Task.Date != today {
		t.Fatalf("created task = %+v", created.Task)
	}

	recorder, env = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/complete", created.Task.ID), token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("complete status = %d (%s)", recorder.Code, recorder.Body.String())
	}
	var completed struct {
		Gamification struct {
			PointsEarned  int64 `json:"points_earned"`
			TotalPoints   int64 `json:"total_points"`
			CurrentStreak int   `json:"current_streak"`
		} `json:"gamification"`
	}
	if errDecode := json.Unmarshal(env.Data, &completed); errDecode != nil {
		t.Fatalf("decode completion: %v", errDecode)
	}
	if completed.Gamification.PointsEarned != 10 {
		t.Fatalf("points earned = %d, want 10", completed.Gamification.PointsEarned)
	}
	// 10 task points plus the first-completion achievement reward.
	if completed.Gamification.TotalPoints != 20 {
		t.Fatalf("total points = %d, want 20", completed.Gamification.TotalPoints)
	}
	if completed.Gamification.CurrentStreak != 1 {
		t.Fatalf("streak = %d, want 1", completed.Gamification.CurrentStreak)
	}

	// Completing again conflicts.
	recorder, _ = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/tasks/%d/complete", created.Task.ID), token, nil)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("second complete status = %d, want 409", recorder.Code)
	}

	// The progress view reports per-achievement entries plus the counts.
	recorder, env = doJSON(t, router, http.MethodGet, "/api/achievements/user/progress", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("progress status = %d (%s)", recorder.Code, recorder.Body.String())
	}
	var progress struct {
		Total    int     `json:"total"`
		Unlocked int     `json:"unlocked"`
		Progress []gin.H `json:"progress"`
	}
	if errDecode := json.Unmarshal(env.Data, &progress); errDecode != nil {
		t.Fatalf("decode progress: %v", errDecode)
	}
	if progress.Total != len(progress.Progress) || progress.Total == 0 {
		t.Fatalf("progress total = %d with %d entries", progress.Total, len(progress.Progress))
	}
	if progress.Unlocked != 1 {
		t.Fatalf("unlocked count = %d, want 1 after first completion", progress.Unlocked)
	}
}

func TestRoutes_TasksByDateDispatch(t *testing.T) {
	router := newTestRouter(t, "apidate")
	token := registerUser(t, router, "bob")

	_, _ = doJSON(t, router, http.MethodPost, "/api/tasks", token, gin.H{
		"name":       "ranger le bureau",
		"difficulty": "moyen",
		"date":       "2026-03-15",
	})

	recorder, env := doJSON(t, router, http.MethodGet, "/api/tasks/2026-03-15", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("by date status = %d (%s)", recorder.Code, recorder.Body.String())
	}
	var listed struct {
		Tasks []struct {
			Name string `json:"name"`
		} `json:"tasks"`
	}
	if errDecode := json.Unmarshal(env.Data, &listed); errDecode != nil {
		t.Fatalf("decode by-date list: %v", errDecode)
	}
	if len(listed.Tasks) != 1 || listed.Tasks[0].Name != "ranger le bureau" {
		t.Fatalf("by-date tasks = %+v", listed.Tasks)
	}

	recorder, _ = doJSON(t, router, http.MethodGet, "/api/tasks/2026-03-16", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("empty day status = %d", recorder.Code)
	}
}
