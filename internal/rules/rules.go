// Package rules adapts the chess rules engine to the lobby. The lobby only
// needs the starting position when a game is created; moves are not played
// through this service.
package rules

import (
	"fmt"

	"github.com/corentings/chess/v2"

	"github.com/sakif/chess-lobby/internal/model"
)

// Engine produces the initial state for a new game.
type Engine interface {
	NewGame() (model.GameState, error)
}

// ChessEngine serializes positions as FEN text.
type ChessEngine struct{}

var _ Engine = ChessEngine{}

func NewChessEngine() ChessEngine {
	return ChessEngine{}
}

// NewGame returns the standard starting position.
func (ChessEngine) NewGame() (model.GameState, error) {
	g := chess.NewGame()
	fen := g.Position().String()
	if fen == "" {
		return nil, fmt.Errorf("rules: engine produced an empty position")
	}
	return model.GameState(fen), nil
}

// Decode rebuilds a game from a stored state. Used by tests and tooling to
// confirm a blob read back from the store is still a legal position.
func (ChessEngine) Decode(state model.GameState) (*chess.Game, error) {
	opt, err := chess.FEN(string(state))
	if err != nil {
		return nil, fmt.Errorf("rules: decoding state: %w", err)
	}
	return chess.NewGame(opt), nil
}
