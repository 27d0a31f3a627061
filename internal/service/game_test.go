package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/chess-lobby/internal/apperror"
	"github.com/sakif/chess-lobby/internal/model"
)

func register(t *testing.T, l *testLobby, username string) string {
	t.Helper()
	tok, err := l.Register(context.Background(), username, "pw-"+username, username+"@mail.com")
	require.NoError(t, err)
	return tok.Token
}

func TestCreateGame(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	tok := register(t, l, "alice")

	id, err := l.CreateGame(ctx, tok, "Test Game")
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	g, err := l.store.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Test Game", g.Name)
	assert.Empty(t, g.WhiteUsername)
	assert.Empty(t, g.BlackUsername)
	assert.Equal(t, model.GameState("initial-state"), g.State)
}

func TestCreateGame_Errors(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	tok := register(t, l, "alice")

	_, err := l.CreateGame(ctx, "bogus", "g")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = l.CreateGame(ctx, tok, "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	l.Games.engine = fakeEngine{err: errors.New("engine broke")}
	_, err = l.CreateGame(ctx, tok, "g")
	assert.Error(t, err)

	games, err := l.ListGames(ctx, tok)
	require.NoError(t, err)
	assert.Empty(t, games, "failed creates leave nothing behind")
}

func TestListGames(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	tok := register(t, l, "alice")

	games, err := l.ListGames(ctx, tok)
	require.NoError(t, err)
	assert.Empty(t, games)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := l.CreateGame(ctx, tok, fmt.Sprintf("g%d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	games, err = l.ListGames(ctx, tok)
	require.NoError(t, err)
	require.Len(t, games, 3)
	for i, g := range games {
		assert.Equal(t, ids[i], g.ID)
	}

	_, err = l.ListGames(ctx, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestJoinGame(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	alice := register(t, l, "alice")
	bob := register(t, l, "bob")
	id, err := l.CreateGame(ctx, alice, "g")
	require.NoError(t, err)

	require.NoError(t, l.JoinGame(ctx, alice, id, "white"))
	require.NoError(t, l.JoinGame(ctx, bob, id, "BLACK"))

	games, err := l.ListGames(ctx, alice)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "alice", games[0].WhiteUsername)
	assert.Equal(t, "bob", games[0].BlackUsername)
}

func TestJoinGame_Errors(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	alice := register(t, l, "alice")
	bob := register(t, l, "bob")
	id, err := l.CreateGame(ctx, alice, "g")
	require.NoError(t, err)
	require.NoError(t, l.JoinGame(ctx, alice, id, "WHITE"))

	tests := []struct {
		name    string
		token   string
		gameID  int64
		color   string
		wantErr error
	}{
		{"bad token", "nope", id, "BLACK", apperror.ErrUnauthorized},
		{"bad color", bob, id, "GREEN", apperror.ErrValidation},
		{"empty color", bob, id, "", apperror.ErrValidation},
		{"zero game id", bob, 0, "BLACK", apperror.ErrValidation},
		{"unknown game", bob, id + 100, "BLACK", apperror.ErrNotFound},
		{"seat taken", bob, id, "WHITE", apperror.ErrSeatTaken},
		{"rejoin own seat", alice, id, "WHITE", apperror.ErrSeatTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.JoinGame(ctx, tt.token, tt.gameID, tt.color)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Nothing above changed the game.
	g, err := l.store.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", g.WhiteUsername)
	assert.Empty(t, g.BlackUsername)
}

func TestJoinGame_Race(t *testing.T) {
	l := newTestLobby()
	ctx := context.Background()
	owner := register(t, l, "owner")
	id, err := l.CreateGame(ctx, owner, "g")
	require.NoError(t, err)

	const n = 20
	tokens := make([]string, n)
	for i := range tokens {
		tokens[i] = register(t, l, fmt.Sprintf("p%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.JoinGame(ctx, tokens[i], id, "BLACK")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, apperror.ErrSeatTaken)
		}
	}
	assert.Equal(t, 1, wins)
}
