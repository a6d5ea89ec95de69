// Package maintenance serves the asset registry, work orders, calendar
// events and TBM policies.
package maintenance

import (
	"errors"
	"net/http"
	"strings"

	"cmms/internal/response"
	"cmms/internal/store"
	"cmms/internal/websocket"
)

// Handler holds dependencies for maintenance handlers.
type Handler struct {
	Store *store.Store
	Hub   *websocket.Hub
}

// storeErr maps store errors to HTTP responses.
func storeErr(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Err(w, what+" not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidTransition):
		response.Err(w, err.Error(), http.StatusConflict)
	case strings.Contains(err.Error(), "UNIQUE constraint"):
		response.Err(w, what+" already exists", http.StatusConflict)
	case strings.Contains(err.Error(), "CHECK constraint"):
		response.Err(w, "invalid "+what, http.StatusBadRequest)
	default:
		response.Err(w, err.Error(), http.StatusInternalServerError)
	}
}
