package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"rootline/internal/service"
)

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	http.Error(w, userMsg, status)
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondWithJSONError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondWithJSON(w, status, map[string]string{"error": userMsg})
}

// decodeJSON reads a JSON request body into dst, rejecting unknown
// fields and oversized payloads.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBodySize))
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// serviceErrorStatus maps service-layer sentinel errors to HTTP status
// codes. Unknown errors map to 500.
func serviceErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrMalformedTree),
		errors.Is(err, service.ErrValidationFailed),
		errors.Is(err, service.ErrCodeInactive),
		errors.Is(err, service.ErrCodeExpired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrEdgeNotFound),
		errors.Is(err, service.ErrSubfamilyNotFound),
		errors.Is(err, service.ErrShareNotFound),
		errors.Is(err, service.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	status := serviceErrorStatus(err)
	userMsg := "Internal server error"
	if status != http.StatusInternalServerError {
		userMsg = err.Error()
	}
	respondWithJSONError(w, status, userMsg, logMsg, err)
}
