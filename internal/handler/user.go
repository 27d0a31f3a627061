package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/chess-lobby/internal/auth"
)

// UserHandler serves registration and the session endpoints.
type UserHandler struct {
	lobby  Lobby
	logger *slog.Logger
}

func NewUserHandler(lobby Lobby, logger *slog.Logger) *UserHandler {
	return &UserHandler{lobby: lobby, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /user
//
//	{"username":"alice","password":"pw","email":"a@mail.com"} → 200 {"authToken":"...","username":"alice"}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tok, err := h.lobby.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// HandleLogin issues a new token for valid credentials.
//
// HTTP: POST /session
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	tok, err := h.lobby.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tok)
}

// HandleLogout revokes the caller's token.
//
// HTTP: DELETE /session (Authorization required)
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	if err := h.lobby.Logout(r.Context(), token); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}
