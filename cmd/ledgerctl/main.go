// Command ledgerctl runs the operator jobs: schema migrations, a full
// reconciliation of derived balances, field key rotation and key generation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/dmitrijs2005/ledgerkeeper/internal/server/config"
	"github.com/google/subcommands"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(subcommands.ExitFailure))
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands(cfg) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func commands(cfg *config.Config) []subcommands.Command {
	return []subcommands.Command{
		&migrateCmd{cfg: cfg},
		&reconcileCmd{cfg: cfg},
		&rotateKeysCmd{cfg: cfg, readSecret: readSecret},
		&keygenCmd{},
	}
}
