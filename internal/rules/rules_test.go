package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chess-lobby/internal/model"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestNewGameIsStartingPosition(t *testing.T) {
	state, err := NewChessEngine().NewGame()
	require.NoError(t, err)
	assert.Equal(t, startFEN, string(state))
}

func TestDecodeRoundTrip(t *testing.T) {
	e := NewChessEngine()
	state, err := e.NewGame()
	require.NoError(t, err)

	g, err := e.Decode(state)
	require.NoError(t, err)
	assert.Equal(t, string(state), g.Position().String())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := NewChessEngine().Decode(model.GameState("not a position"))
	assert.Error(t, err)
}
