package router

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/yxshee/biteback/services/api/internal/logger"
)

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeInternalError logs err against the request and answers 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logger.FromContext(r.Context()).WithError(err).Error(message)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
