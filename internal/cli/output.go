package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sakif/chess-lobby/internal/model"
)

// Output formats command results as text or JSON.
type Output struct {
	format string
	w      io.Writer
}

func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
		return
	}
	switch v := data.(type) {
	case *model.AuthToken:
		fmt.Fprintf(o.w, "Logged in as %s\n", v.Username)
		fmt.Fprintf(o.w, "Token: %s\n", v.Token)
	case []model.GameSummary:
		o.printGames(v)
	case createdGame:
		fmt.Fprintf(o.w, "Created game %d\n", v.GameID)
	default:
		o.printJSON(data)
	}
}

func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
		return
	}
	fmt.Fprintln(o.w, msg)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printGames(games []model.GameSummary) {
	if len(games) == 0 {
		fmt.Fprintln(o.w, "No games.")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWHITE\tBLACK")
	for _, g := range games {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", g.ID, g.Name, seatOrDash(g.WhiteUsername), seatOrDash(g.BlackUsername))
	}
	_ = tw.Flush()
}

func seatOrDash(username string) string {
	if username == "" {
		return "-"
	}
	return username
}

type createdGame struct {
	GameID int64 `json:"gameID"`
}
