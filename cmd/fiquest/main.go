// Command fiquest manages FIQuest players, their net worth ledger and their
// portable save files from the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range playerCommands {
		commander.Register(c, "player")
	}
	for _, c := range ledgerCommands {
		commander.Register(c, "ledger")
	}
	for _, c := range saveFileCommands {
		commander.Register(c, "save files")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
