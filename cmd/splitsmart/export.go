package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"splitsmart/internal/report"
	gsheet "splitsmart/internal/sheets/google"
)

type exportCmd struct {
	env    *env
	tripID string
	kind   string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write a trip report to Google Sheets" }
func (*exportCmd) Usage() string {
	return `splitsmart export [-trip <id>] [-kind report|expenses]

  Writes the report rows into a sheet named after the report file name.
  Needs GOOGLE_SPREADSHEET_ID and service account credentials.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tripID, "trip", "", "Trip id. Defaults to the current trip.")
	f.StringVar(&c.kind, "kind", string(report.KindTripReport), "Report kind: report or expenses.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := report.ParseKind(c.kind)
	if err != nil {
		return fail(err)
	}

	cfg := c.env.cfg
	if !cfg.SheetsEnabled() {
		return fail(fmt.Errorf("google sheets export is not configured"))
	}

	app, trip, err := c.env.openTrip(ctx, c.tripID)
	if err != nil {
		return fail(err)
	}
	defer app.Close(ctx)

	rep, err := app.Trips.Report(trip.ID, kind)
	if err != nil {
		return fail(err)
	}

	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ActivitySheet:      cfg.GoogleActivitySheet,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, c.env.logger)
	if err != nil {
		return fail(err)
	}

	ref, err := client.ExportReport(ctx, rep)
	if err != nil {
		return fail(err)
	}
	fmt.Println(ref)
	return subcommands.ExitSuccess
}
