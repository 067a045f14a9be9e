package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/adav/coinjournal/cmd"
	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}
	commander.Register(commander.HelpCommand(), "help")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
