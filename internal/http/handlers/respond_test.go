package handlers_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/domain/enrollment"
	"github.com/geocoder89/learnhub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func TestRespondDomainError_StatusByKind(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", apperr.Validation("progress must be between 0 and 100, got 130"), http.StatusBadRequest, "invalid_request"},
		{"unauthenticated", apperr.Unauthenticated("no identity"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{"not found", apperr.NotFound("Course not found"), http.StatusNotFound, "not_found"},
		{"conflict wrapped", fmt.Errorf("enroll: %w", enrollment.ErrAlreadyEnrolled), http.StatusConflict, "already_enrolled"},
		{"unclassified", errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(ctx *gin.Context) {
				ctx.Set("request_id", "req-1")
				handlers.RespondDomainError(ctx, tc.err)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			if w.Code != tc.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tc.wantCode, w.Body.String())
			}

			var resp struct {
				Error handlers.APIError `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if resp.Error.Code != tc.wantBody {
				t.Fatalf("got code %q, want %q", resp.Error.Code, tc.wantBody)
			}
			if resp.Error.RequestID != "req-1" {
				t.Fatalf("expected request id to be echoed, got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestRespondDomainError_HidesInternalMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(ctx *gin.Context) {
		handlers.RespondDomainError(ctx, errors.New("pq: password authentication failed"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var resp struct {
		Error handlers.APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if resp.Error.Message != "Something went wrong" {
		t.Fatalf("internal detail leaked: %q", resp.Error.Message)
	}
}
