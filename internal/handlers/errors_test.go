package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rootline/internal/service"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	body := strings.TrimSpace(recorder.Body.String())
	if body != "Teapot" {
		t.Fatalf("expected body 'Teapot', got %q", body)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithJSONErrorBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithJSONError(recorder, http.StatusForbidden, "No access", "", nil)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json content type, got %q", ct)
	}
	if body := strings.TrimSpace(recorder.Body.String()); body != `{"error":"No access"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrMalformedTree, http.StatusBadRequest},
		{fmt.Errorf("save failed: %w", service.ErrValidationFailed), http.StatusBadRequest},
		{service.ErrCodeExpired, http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrMemberNotFound, http.StatusNotFound},
		{service.ErrShareNotFound, http.StatusNotFound},
		{service.ErrCodeNotFound, http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := serviceErrorStatus(tt.err); got != tt.status {
			t.Errorf("serviceErrorStatus(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}
