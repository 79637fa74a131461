package contact

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// maxBodyBytes bounds a JSON submission.
const maxBodyBytes = 64 << 10

// Response is the JSON body of POST /api/contact. Exactly one field is set.
type Response struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPStatus maps a Send error to its response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrTooLong):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text shown to the visitor for a Send error. Delivery
// details stay in the logs.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return SuccessMessage
	case errors.Is(err, ErrMissingFields):
		return ErrMissingFields.Error()
	case errors.Is(err, ErrInvalidEmail):
		return ErrInvalidEmail.Error()
	case errors.Is(err, ErrTooLong):
		return ErrTooLong.Error()
	case errors.Is(err, ErrNotConfigured):
		return ErrNotConfigured.Error()
	case errors.Is(err, ErrDeliveryFailed):
		return ErrDeliveryFailed.Error()
	default:
		return "internal error"
	}
}

// Handler serves POST /api/contact.
type Handler struct {
	relay  *Relay
	logger *slog.Logger
}

// NewHandler returns the JSON endpoint for relay.
func NewHandler(relay *Relay, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{relay: relay, logger: logger}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, Response{Error: "method not allowed"})
		return
	}

	var sub Submission
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Response{Error: "request too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, Response{Error: "invalid request body"})
		return
	}

	err := h.relay.Send(r.Context(), sub)
	status := HTTPStatus(err)
	if err != nil {
		if status >= http.StatusInternalServerError {
			h.logger.Warn("contact request failed", "status", status, "error", err)
		}
		writeJSON(w, status, Response{Error: PublicMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, Response{Message: SuccessMessage})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
