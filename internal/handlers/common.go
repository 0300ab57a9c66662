package handlers

import (
	"encoding/json"
	"encoding/xml"
	"net/http"

	"github.com/nshamaev/instakiller/internal/models"

	"github.com/rs/zerolog/log"
)

const formatXML = "xml"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respond encodes the payload as JSON, or as XML when the request's
// format parameter asks for it.
func respond(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	if r.URL.Query().Get("format") == formatXML {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(statusCode)
		if err := xml.NewEncoder(w).Encode(payload); err != nil {
			log.Error().Err(err).Msg("Failed to encode XML response")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondFieldErrors sends the per-field validation messages as a 400.
func respondFieldErrors(w http.ResponseWriter, verrs models.ValidationErrors) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(verrs)
}
