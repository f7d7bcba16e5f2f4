package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/geocoder89/learnhub/internal/auth"
	"github.com/geocoder89/learnhub/internal/config"
	"github.com/geocoder89/learnhub/internal/db"
	apphttp "github.com/geocoder89/learnhub/internal/http"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/geocoder89/learnhub/internal/repo/postgres"
	"github.com/geocoder89/learnhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "admin-password"
)

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLHours:  24,
		MaxBodyBytes:        1 << 20,
		RateLimitAuthPerMin: 1000,
		EnforceOwnership:    true,
	}
}

// setupTestRouter wires the real Postgres repos. Tests skip unless
// TEST_DB_DSN points at a disposable database.
func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping postgres integration test")
	}

	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	resetDB(t, pool)
	t.Cleanup(func() { resetDB(t, pool) })

	cfg := testConfig()
	prom := observability.NewProm(prometheus.NewRegistry())
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL())

	users := postgres.NewUsersRepo(pool, prom)
	authSvc := service.NewAuthService(users, postgres.NewRefreshTokensRepo(pool, prom), jwtManager)

	if err := authSvc.EnsureAdmin(ctx, testAdminEmail, testAdminPassword, "Test Admin"); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	router := apphttp.NewRouter(apphttp.Deps{
		Cfg:         cfg,
		Prom:        prom,
		Tokens:      jwtManager,
		Auth:        authSvc,
		Courses:     service.NewCourseService(postgres.NewCoursesRepo(pool, prom), postgres.NewLessonsRepo(pool, prom), cfg.EnforceOwnership),
		Enrollments: service.NewEnrollmentService(postgres.NewEnrollmentsRepo(pool, prom), prom, cfg.EnforceOwnership),
		Admin:       service.NewAdminService(users, postgres.NewStatsRepo(pool, prom)),
	})

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE refresh_tokens, enrollments, lessons, courses, users
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

// helpers

func extractRefreshCookie(t *testing.T, response *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range response.Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}

	t.Fatalf("refresh_token cookie not found in response")

	return nil
}

// doRequest runs a request and returns the recorder plus the parsed response for cookies.
func doRequest(router http.Handler, method, path, token, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Response) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Result()
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func mustSignUp(t *testing.T, router http.Handler, email string) tokenResponse {
	t.Helper()

	body := `{"email":"` + email + `","password":"password123","name":"Test User"}`
	w, _ := doRequest(router, http.MethodPost, "/auth/register", "", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)
	return resp
}

func mustLogin(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	w, _ := doRequest(router, http.MethodPost, "/auth/login", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("login got status %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp tokenResponse
	mustReadJSON(t, w, &resp)
	return resp.AccessToken
}

func mustCreateCourse(t *testing.T, router http.Handler, token, title string) string {
	t.Helper()

	w, _ := doRequest(router, http.MethodPost, "/courses", token, `{"title":"`+title+`","description":"desc"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create course got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	mustReadJSON(t, w, &resp)
	return resp.ID
}
