package api

import (
	"encoding/json"
	"log"
	"net/http"

	apperrors "parkspot/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy to HTTP statuses; anything outside
// it is a 500 with the detail kept server-side.
func writeError(w http.ResponseWriter, err error) {
	status := apperrors.StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("Internal error: %v", err)
		message = "internal server error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}
