package handler

import (
	"log/slog"
	"net/http"
)

type AdminHandler struct {
	lobby  Lobby
	logger *slog.Logger
}

func NewAdminHandler(lobby Lobby, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{lobby: lobby, logger: logger}
}

// HandleClear wipes the whole store.
//
// HTTP: DELETE /db
func (h *AdminHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.lobby.Clear(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// HandleHealth answers liveness probes.
//
// HTTP: GET /health
func (h *AdminHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
