package main

import "github.com/sakif/chess-lobby/internal/cli"

func main() {
	cli.Execute()
}
