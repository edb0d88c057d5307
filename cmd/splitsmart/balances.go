package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
)

type balancesCmd struct {
	env    *env
	tripID string
}

func (*balancesCmd) Name() string     { return "balances" }
func (*balancesCmd) Synopsis() string { return "print member balances and suggested settlements" }
func (*balancesCmd) Usage() string {
	return `splitsmart balances [-trip <id>]

  Prints who owes what for a trip, followed by the transfers that settle it.
  Without -trip the current trip is used.
`
}

func (c *balancesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tripID, "trip", "", "Trip id. Defaults to the current trip.")
}

func (c *balancesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, trip, err := c.env.openTrip(ctx, c.tripID)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	balances, err := app.Trips.Balances(trip.ID)
	if err != nil {
		return fail(err)
	}
	transfers, err := app.Trips.Settlements(trip.ID)
	if err != nil {
		return fail(err)
	}

	currency := c.env.cfg.Currency
	fmt.Printf("%s (%s)\n\n", trip.Name, trip.TotalAmount.Format(currency))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, b := range balances {
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Status, b.Balance.Abs().Format(currency))
	}
	w.Flush()

	if len(transfers) == 0 {
		fmt.Println("\nEveryone is settled.")
		return subcommands.ExitSuccess
	}
	fmt.Println("\nSettle up:")
	for _, t := range transfers {
		fmt.Printf("  %s pays %s %s\n", trip.MemberName(t.From), trip.MemberName(t.To), t.Amount.Format(currency))
	}
	return subcommands.ExitSuccess
}
