package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON {error, message} body. internalDetail, when
// given, is logged server-side but never echoed to the caller.
func respondError(w http.ResponseWriter, status int, clientMsg string, internalDetail ...string) {
	if len(internalDetail) > 0 {
		log.Error().Int("status", status).Strs("detail", internalDetail).Msg("httpapi: error response")
	}
	respondJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": clientMsg,
	})
}
