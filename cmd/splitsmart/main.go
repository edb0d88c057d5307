// Command splitsmart serves the trip expense API and offers offline
// reporting on the saved ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"splitsmart/internal/cli"
	"splitsmart/internal/config"
	"splitsmart/internal/core"
	"splitsmart/internal/log"
)

// env is shared by every subcommand once configuration is loaded.
type env struct {
	cfg    *config.Config
	logger *log.Logger
}

func main() {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	e := &env{cfg: cfg, logger: cli.SetupLogger(cfg, log.ComponentApp)}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&serveCmd{env: e}, "")
	commander.Register(&balancesCmd{env: e}, "reports")
	commander.Register(&reportCmd{env: e}, "reports")
	commander.Register(&exportCmd{env: e}, "reports")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// openTrip restores the ledger and returns the trip with the given id, or
// the current trip when id is empty.
func (e *env) openTrip(ctx context.Context, id string) (*cli.App, core.Trip, error) {
	app, err := cli.OpenApp(ctx, e.cfg, e.logger, true)
	if err != nil {
		return nil, core.Trip{}, err
	}
	var trip core.Trip
	if id == "" {
		var ok bool
		if trip, ok = app.Trips.CurrentTrip(); !ok {
			err = fmt.Errorf("no current trip: pass -trip")
		}
	} else {
		trip, err = app.Trips.Trip(id)
	}
	if err != nil {
		_ = app.Close(ctx)
		return nil, core.Trip{}, err
	}
	return app, trip, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
