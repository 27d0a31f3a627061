package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/chess-lobby/internal/auth"
	"github.com/sakif/chess-lobby/internal/model"
)

// GameHandler serves the /game endpoints. All of them require a token.
type GameHandler struct {
	lobby  Lobby
	logger *slog.Logger
}

func NewGameHandler(lobby Lobby, logger *slog.Logger) *GameHandler {
	return &GameHandler{lobby: lobby, logger: logger}
}

type listGamesResponse struct {
	Games []model.GameSummary `json:"games"`
}

type createGameRequest struct {
	GameName string `json:"gameName"`
}

type createGameResponse struct {
	GameID int64 `json:"gameID"`
}

type joinGameRequest struct {
	PlayerColor string `json:"playerColor"`
	GameID      int64  `json:"gameID"`
}

// HandleList returns every game.
//
// HTTP: GET /game → {"games":[{"gameID":1,"gameName":"g","whiteUsername":"alice"}]}
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	games, err := h.lobby.ListGames(r.Context(), token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listGamesResponse{Games: games})
}

// HandleCreate creates a game.
//
// HTTP: POST /game {"gameName":"g"} → {"gameID":1}
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	var req createGameRequest
	if !h.decodeBody(w, r, token, &req) {
		return
	}

	id, err := h.lobby.CreateGame(r.Context(), token, req.GameName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, createGameResponse{GameID: id})
}

// HandleJoin claims a seat.
//
// HTTP: PUT /game {"playerColor":"WHITE","gameID":1} → {}
func (h *GameHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	var req joinGameRequest
	if !h.decodeBody(w, r, token, &req) {
		return
	}

	if err := h.lobby.JoinGame(r.Context(), token, req.GameID, req.PlayerColor); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// decodeBody reads the request body into dst and writes the error response
// when it cannot. A bad token is reported ahead of a bad body.
func (h *GameHandler) decodeBody(w http.ResponseWriter, r *http.Request, token string, dst any) bool {
	err := decodeJSON(w, r, dst)
	if err == nil {
		return true
	}
	if _, authErr := h.lobby.Authenticate(r.Context(), token); authErr != nil {
		err = authErr
	}
	writeError(w, h.logger, err)
	return false
}
