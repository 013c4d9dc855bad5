package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mamelilea/agrowtify-web/internal/services"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

var testNow = time.Date(2024, 4, 23, 8, 0, 0, 0, time.UTC)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", utils.NewValidationError("title", "title is required"), http.StatusBadRequest, "title is required"},
		{"not found", fmt.Errorf("get: %w", services.ErrNotFound), http.StatusNotFound, "Not found"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "You do not have access to this resource"},
		{"bare conflict", services.ErrConflict, http.StatusConflict, "Already exists"},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"upload", &services.UploadError{Filename: "a.jpg", Err: errors.New("timeout")}, http.StatusInternalServerError, "Failed to upload a.jpg"},
		{"other", errors.New("connection reset"), http.StatusInternalServerError, "Failed to save things"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, "save things", tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp ErrorResponse
			decodeBody(t, rec.Body, &resp)
			if resp.Success || resp.Message != tt.message {
				t.Fatalf("body = %+v, want message %q", resp, tt.message)
			}
		})
	}
}

func TestDecodeQueryDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?sortOrder=asc", nil)
	var q services.ListEntriesQuery
	if err := decodeQuery(req, &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Limit != 10 || q.SortBy != "date" || q.SortOrder != "asc" {
		t.Fatalf("unexpected query %+v", q)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)
	err := decodeQuery(req, &q)
	var vErr *utils.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "limit" {
		t.Fatalf("expected limit error, got %v", err)
	}
}
