package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/config"
	apphttp "github.com/geocoder89/learnhub/internal/http"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/repo/memory"
	"github.com/geocoder89/learnhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

type apiError struct {
	Error struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		RequestID string          `json:"requestId"`
		Details   json.RawMessage `json:"details"`
	} `json:"error"`
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T, mutate ...func(*config.Config)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 15,
		JWTRefreshTTLHours:  24,
		MaxBodyBytes:        1 << 20,
		RateLimitAuthPerMin: 100,
		EnforceOwnership:    true,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	store := memory.NewStore()
	prom := observability.NewProm(prometheus.NewRegistry())
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	authSvc := service.NewAuthService(store, store, jwtManager)
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), adminEmail, adminPassword, "Admin"))

	router := apphttp.NewRouter(apphttp.Deps{
		Cfg:         cfg,
		Prom:        prom,
		Tokens:      jwtManager,
		Auth:        authSvc,
		Courses:     service.NewCourseService(store, store, cfg.EnforceOwnership),
		Enrollments: service.NewEnrollmentService(store, prom, cfg.EnforceOwnership),
		Admin:       service.NewAdminService(store, store),
	})

	return &testAPI{t: t, router: router}
}

func (a *testAPI) do(method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf *bytes.Buffer
	switch b := body.(type) {
	case nil:
		buf = &bytes.Buffer{}
	case string:
		buf = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		buf = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) register(email string) (string, string) {
	a.t.Helper()

	w := a.do(http.MethodPost, "/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
		"name":     "Test User",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(a.t, w, &resp)
	require.NotEmpty(a.t, resp.AccessToken)
	return resp.AccessToken, resp.User.ID
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()

	w := a.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	decode(a.t, w, &resp)
	return resp.AccessToken
}

func (a *testAPI) createCourse(token, title string) string {
	a.t.Helper()

	w := a.do(http.MethodPost, "/courses", token, gin.H{"title": title, "description": "desc"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	decode(a.t, w, &resp)
	return resp.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	decode(t, w, &e)
	return e
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_RegisterLoginMeRefresh(t *testing.T) {
	api := newTestAPI(t)

	token, userID := api.register("student@example.com")

	w := api.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var me struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	decode(t, w, &me)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "STUDENT", me.Role)

	// duplicate email
	w = api.do(http.MethodPost, "/auth/register", "", gin.H{
		"email":    "student@example.com",
		"password": "password123",
		"name":     "Again",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "email_taken", errorOf(t, w).Error.Code)

	// wrong password
	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"email": "student@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// refresh rotates the cookie
	w = api.do(http.MethodPost, "/auth/login", "", gin.H{"email": "student@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	var refresh *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)

	w = api.do(http.MethodPost, "/auth/refresh", "", nil, "Cookie", "refresh_token="+refresh.Value)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the old token is spent
	w = api.do(http.MethodPost, "/auth/refresh", "", nil, "Cookie", "refresh_token="+refresh.Value)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_MissingTokenIs401(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", errorOf(t, w).Error.Code)

	w = api.do(http.MethodPost, "/enrollments", "garbage", gin.H{"courseId": "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnrollmentProgressScenario(t *testing.T) {
	api := newTestAPI(t)

	instructor, _ := api.register("instructor@example.com")
	student, _ := api.register("learner@example.com")
	courseID := api.createCourse(instructor, "Go Basics")

	w := api.do(http.MethodPost, "/enrollments", student, gin.H{"courseId": courseID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID       string `json:"id"`
		Progress int    `json:"progress"`
		Course   struct {
			ID string `json:"id"`
		} `json:"course"`
	}
	decode(t, w, &created)
	assert.Equal(t, 0, created.Progress)
	assert.Equal(t, courseID, created.Course.ID)

	w = api.do(http.MethodPost, "/enrollments", student, gin.H{"courseId": courseID})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_enrolled", errorOf(t, w).Error.Code)

	w = api.do(http.MethodPatch, "/enrollments/"+created.ID+"/progress", student, gin.H{"progress": 130})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodPatch, "/enrollments/"+created.ID, student, gin.H{"progress": 55})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/enrollments", student, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Items []struct {
			ID       string `json:"id"`
			Progress int    `json:"progress"`
		} `json:"items"`
		Count int `json:"count"`
	}
	decode(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, 55, list.Items[0].Progress)

	// someone else cannot touch it
	w = api.do(http.MethodDelete, "/enrollments/"+created.ID, instructor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodDelete, "/enrollments/"+created.ID, student, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEnroll_UnknownCourseIs404(t *testing.T) {
	api := newTestAPI(t)
	student, _ := api.register("learner@example.com")

	w := api.do(http.MethodPost, "/enrollments", student, gin.H{"courseId": "7b0b7c8e-2f39-4d7e-9d1c-4c1a5a2f9e10"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPost, "/enrollments", student, gin.H{"courseId": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestBody_UnknownFieldRejected(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("instructor@example.com")

	w := api.do(http.MethodPost, "/courses", token, `{"title":"Go Basics","price":10}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", errorOf(t, w).Error.Code)
}

func TestCourses_OwnershipAndETag(t *testing.T) {
	api := newTestAPI(t)

	owner, _ := api.register("owner@example.com")
	other, _ := api.register("other@example.com")
	courseID := api.createCourse(owner, "Go Basics")

	w := api.do(http.MethodPatch, "/courses/"+courseID, other, gin.H{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPatch, "/courses/"+courseID, owner, gin.H{"title": "Go Basics II"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/courses", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = api.do(http.MethodGet, "/courses", "", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = api.do(http.MethodGet, "/courses/"+courseID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		Title string `json:"title"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "Go Basics II", detail.Title)

	w = api.do(http.MethodGet, "/courses/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/courses?cursor=not-a-cursor", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	crafted := base64.RawURLEncoding.EncodeToString([]byte(`{"createdAt":"2026-01-01T00:00:00Z","id":"not-a-uuid"}`))
	w = api.do(http.MethodGet, "/courses?cursor="+crafted, "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodDelete, "/courses/"+courseID, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLessons_Routes(t *testing.T) {
	api := newTestAPI(t)

	owner, _ := api.register("owner@example.com")
	courseID := api.createCourse(owner, "Go Basics")

	w := api.do(http.MethodPost, "/lessons/"+courseID, owner, gin.H{"title": "Intro", "content": "Hello", "order": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var l struct {
		ID string `json:"id"`
	}
	decode(t, w, &l)

	w = api.do(http.MethodPost, "/lessons/"+courseID, owner, gin.H{"title": "Again", "content": "Hello", "order": 1})
	require.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodGet, "/lessons/"+courseID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodPatch, "/lessons/"+l.ID+"/video", owner, gin.H{"videoUrl": "https://videos.example.com/intro.mp4"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodGet, "/lessons/detail/"+l.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		VideoURL *string `json:"videoUrl"`
	}
	decode(t, w, &detail)
	require.NotNil(t, detail.VideoURL)
	assert.Equal(t, "https://videos.example.com/intro.mp4", *detail.VideoURL)

	w = api.do(http.MethodPatch, "/lessons/"+l.ID, owner, gin.H{"title": "Intro v2", "content": "Hi", "order": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodDelete, "/lessons/"+l.ID, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLessons_UpdateKeepsVideo(t *testing.T) {
	api := newTestAPI(t)

	owner, _ := api.register("owner@example.com")
	courseID := api.createCourse(owner, "Go Basics")

	w := api.do(http.MethodPost, "/lessons/"+courseID, owner, gin.H{"title": "Intro", "content": "Hello", "order": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var l struct {
		ID string `json:"id"`
	}
	decode(t, w, &l)

	video := "https://videos.example.com/intro.mp4"
	w = api.do(http.MethodPatch, "/lessons/"+l.ID+"/video", owner, gin.H{"videoUrl": video})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPatch, "/lessons/"+l.ID, owner, gin.H{"title": "Intro v2", "content": "Hi", "order": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated struct {
		Title    string  `json:"title"`
		VideoURL *string `json:"videoUrl"`
	}
	decode(t, w, &updated)
	assert.Equal(t, "Intro v2", updated.Title)
	require.NotNil(t, updated.VideoURL)
	assert.Equal(t, video, *updated.VideoURL)

	w = api.do(http.MethodGet, "/lessons/detail/"+l.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail struct {
		VideoURL *string `json:"videoUrl"`
	}
	decode(t, w, &detail)
	require.NotNil(t, detail.VideoURL)
	assert.Equal(t, video, *detail.VideoURL)

	// the video is only changed through its own route
	w = api.do(http.MethodPatch, "/lessons/"+l.ID, owner, gin.H{"title": "Intro", "content": "Hi", "order": 1, "videoUrl": nil})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_RoleGates(t *testing.T) {
	api := newTestAPI(t)

	student, studentID := api.register("learner@example.com")

	w := api.do(http.MethodGet, "/admin/statistics", student, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden: role STUDENT not in {ADMIN, MANAGER, HR}", errorOf(t, w).Error.Message)

	admin := api.login(adminEmail, adminPassword)

	w = api.do(http.MethodGet, "/admin/statistics", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats struct {
		TotalUsers int `json:"totalUsers"`
	}
	decode(t, w, &stats)
	assert.Equal(t, 2, stats.TotalUsers)

	w = api.do(http.MethodPut, "/admin/users/"+studentID+"/role", admin, gin.H{"role": "admin"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w).Error.Message, "{STUDENT, INSTRUCTOR, MANAGER, HR, ADMIN}")

	for _, body := range []gin.H{{"role": ""}, {}} {
		w = api.do(http.MethodPut, "/admin/users/"+studentID+"/role", admin, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorOf(t, w).Error.Message, "{STUDENT, INSTRUCTOR, MANAGER, HR, ADMIN}")
	}

	w = api.do(http.MethodPut, "/admin/users/"+studentID+"/role", admin, gin.H{"role": "MANAGER"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the old token still says STUDENT until it is reissued
	manager := api.login("learner@example.com", "password123")

	w = api.do(http.MethodGet, "/admin/courses-stats", manager, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodDelete, "/admin/users/"+studentID, manager, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodGet, "/admin/users/"+studentID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodDelete, "/admin/users/"+studentID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var users struct {
		Count int `json:"count"`
	}
	decode(t, w, &users)
	assert.Equal(t, 1, users.Count)
}

func TestAI_DisabledIs503(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("learner@example.com")

	w := api.do(http.MethodPost, "/ai/ask", token, gin.H{"question": "What is a goroutine?"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ai_unavailable", errorOf(t, w).Error.Code)
}

func TestAuth_RateLimited(t *testing.T) {
	api := newTestAPI(t, func(c *config.Config) { c.RateLimitAuthPerMin = 2 })

	body := gin.H{"email": "nobody@example.com", "password": "whatever1"}
	for i := 0; i < 2; i++ {
		w := api.do(http.MethodPost, "/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := api.do(http.MethodPost, "/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRequireJSON(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.register("instructor@example.com")

	w := api.do(http.MethodPost, "/courses", token, `{"title":"Go Basics"}`, "Content-Type", "text/plain")
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_ = api.do(http.MethodGet, "/healthz", "", nil)

	w := api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "learnhub_http_requests_total")
}

func TestMetrics_LessonRoutesLabelledByLessonID(t *testing.T) {
	api := newTestAPI(t)

	owner, _ := api.register("owner@example.com")
	courseID := api.createCourse(owner, "Go Basics")

	w := api.do(http.MethodPost, "/lessons/"+courseID, owner, gin.H{"title": "Intro", "content": "Hello", "order": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var l struct {
		ID string `json:"id"`
	}
	decode(t, w, &l)

	w = api.do(http.MethodDelete, "/lessons/"+l.ID, owner, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `method="DELETE",route="/lessons/:id"`)
	assert.Contains(t, w.Body.String(), `method="POST",route="/lessons/:courseId"`)
}
