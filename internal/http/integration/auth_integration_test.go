package integration_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestAuthIntegration_Signup_Refresh_Logout(t *testing.T) {
	router, _ := setupTestRouter(t)

	// sign up
	signupBody := `{"email":"sam@example.com","password":"password123","name":"Sam Doe"}`

	w, response := doRequest(router, http.MethodPost, "/auth/register", "", signupBody)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup got status %d, want %d, body=%s", w.Code, http.StatusCreated, w.Body.String())
	}

	var signupToken tokenResponse

	mustReadJSON(t, w, &signupToken)

	if strings.TrimSpace(signupToken.AccessToken) == "" {
		t.Fatalf("signup expected accessToken, got empty")
	}

	signupRefresh := extractRefreshCookie(t, response)

	// REFRESH (happy path)
	w2, response2 := doRequest(router, http.MethodPost, "/auth/refresh", "", "", signupRefresh)

	if w2.Code != http.StatusOK {
		t.Fatalf("refresh got status %d,want %d, body=%s", w2.Code, http.StatusOK, w2.Body.String())
	}

	rotatedRefresh := extractRefreshCookie(t, response2)

	// Refresh with OLD Cookie should now fail (rotation)
	w3, _ := doRequest(router, http.MethodPost, "/auth/refresh", "", "", signupRefresh)
	if w3.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(old cookie) got status %d, want %d, body=%s", w3.Code, http.StatusUnauthorized, w3.Body.String())
	}

	// LOGOUT should revoke and clear existing cookie
	w4, response4 := doRequest(router, http.MethodPost, "/auth/logout", "", "", rotatedRefresh)

	if w4.Code != http.StatusNoContent {
		t.Fatalf("logout got status %d, want %d, body=%s", w4.Code, http.StatusNoContent, w4.Body.String())
	}

	cleared := false

	for _, c := range response4.Cookies() {
		if c.Name == "refresh_token" && (c.MaxAge < 0 || c.Value == "") {
			cleared = true
		}
	}

	if !cleared {
		t.Fatalf("expected logout to clear refresh_token cookie")
	}

	w5, _ := doRequest(router, http.MethodPost, "/auth/refresh", "", "", rotatedRefresh)
	if w5.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(after logout) got status %d, want %d, body=%s", w5.Code, http.StatusUnauthorized, w5.Body.String())
	}
}

func TestAuthIntegration_Refresh_MissingCookie(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, _ := doRequest(router, http.MethodPost, "/auth/refresh", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("refresh(missing cookie) got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}

	var e apiErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &e)
	if e.Error.Code != "no_refresh" {
		t.Fatalf("expected no_refresh, got %s", e.Error.Code)
	}
}

func TestAuthIntegration_DuplicateEmail(t *testing.T) {
	router, _ := setupTestRouter(t)

	mustSignUp(t, router, "dup@example.com")

	// case differs, still the same account
	w, _ := doRequest(router, http.MethodPost, "/auth/register", "", `{"email":"DUP@example.com","password":"password123","name":"Again"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("signup(duplicate) got status %d, want %d, body=%s", w.Code, http.StatusConflict, w.Body.String())
	}
}

func TestAuthIntegration_Login_InvalidCredentials(t *testing.T) {
	router, _ := setupTestRouter(t)

	// no user created
	body := `{"email":"nope@example.com","password":"wrong"}`
	w, _ := doRequest(router, http.MethodPost, "/auth/login", "", body)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login(invalid creds) got status %d, want %d, body=%s", w.Code, http.StatusUnauthorized, w.Body.String())
	}
}
