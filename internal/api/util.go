package api

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	// Some payloads carry URLs; HTML escaping them only makes the output
	// harder to read for API clients.
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(data)
}
