package httpapi

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes data as-is. Resource payloads keep their original wire
// shape; only errors get an envelope.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error envelope, defaulting to 500 for anything that is
// not an APIError.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = InternalError("")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	_, _ = w.Write(apiErr.ToJSON())
}
