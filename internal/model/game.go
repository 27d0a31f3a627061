package model

import (
	"fmt"
	"strings"
)

// Color names a seat at the board.
type Color string

const (
	White Color = "WHITE"
	Black Color = "BLACK"
)

// ParseColor accepts "white"/"black" in any case and returns the canonical
// Color. Anything else is an error.
func ParseColor(s string) (Color, error) {
	switch Color(strings.ToUpper(strings.TrimSpace(s))) {
	case White:
		return White, nil
	case Black:
		return Black, nil
	}
	return "", fmt.Errorf("model: unknown color %q", s)
}

func (c Color) String() string { return string(c) }

// GameState is the serialized board produced by the rules engine.
// The store treats it as an opaque blob and hands back exactly the bytes it
// was given.
type GameState []byte

// Game is a full game row.
//
// WhiteUsername and BlackUsername are empty while the seat is free. A seat only
// ever moves from empty to a username.
type Game struct {
	ID            int64     `json:"gameID"`
	Name          string    `json:"gameName"`
	WhiteUsername string    `json:"whiteUsername,omitempty"`
	BlackUsername string    `json:"blackUsername,omitempty"`
	State         GameState `json:"-"`
}

// Seat returns the username occupying the given color, or "" if it is free.
func (g *Game) Seat(c Color) string {
	if c == White {
		return g.WhiteUsername
	}
	return g.BlackUsername
}

// Summary drops the state blob for listings.
func (g *Game) Summary() GameSummary {
	return GameSummary{
		ID:            g.ID,
		Name:          g.Name,
		WhiteUsername: g.WhiteUsername,
		BlackUsername: g.BlackUsername,
	}
}

// GameSummary is what a lobby listing shows for one game.
type GameSummary struct {
	ID            int64  `json:"gameID"`
	Name          string `json:"gameName"`
	WhiteUsername string `json:"whiteUsername,omitempty"`
	BlackUsername string `json:"blackUsername,omitempty"`
}
