package utils

import (
	"encoding/json"
	"net/http"
)

// JSON writes data with the given status; a nil payload writes headers only.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// JSONError is used where no request-specific error code exists, e.g. auth rejections.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
