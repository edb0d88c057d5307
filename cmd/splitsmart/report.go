package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"splitsmart/internal/report"
)

type reportCmd struct {
	env    *env
	tripID string
	format string
	kind   string
	style  string
	width  int
	out    string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "render a trip report as markdown, HTML or terminal text" }
func (*reportCmd) Usage() string {
	return `splitsmart report [-trip <id>] [-format md|html|term] [-kind report|expenses] [-o <file>]

  Renders the trip report. With -o - the report goes to stdout; with -o ""
  it is written to <trip_name>_expense_report.<ext> in the working directory.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tripID, "trip", "", "Trip id. Defaults to the current trip.")
	f.StringVar(&c.format, "format", "term", "Output format: md, html or term.")
	f.StringVar(&c.kind, "kind", string(report.KindTripReport), "Report kind: report or expenses.")
	f.StringVar(&c.style, "style", "", "Glamour style for -format term (dark, light, notty). Empty detects the terminal.")
	f.IntVar(&c.width, "width", 100, "Word wrap width for -format term.")
	f.StringVar(&c.out, "o", "-", "Output file, - for stdout, empty for the default file name.")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := report.ParseKind(c.kind)
	if err != nil {
		return fail(err)
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

	var body, ext string
	switch c.format {
	case "md", "markdown":
		body, err = report.Markdown(rep)
		ext = ".md"
	case "html":
		body, err = report.HTML(rep)
		ext = ".html"
	case "term":
		body, err = report.Terminal(rep, c.style, c.width)
		ext = ".txt"
	default:
		err = fmt.Errorf("unknown format %q", c.format)
	}
	if err != nil {
		return fail(err)
	}

	switch c.out {
	case "-":
		fmt.Print(body)
	default:
		name := c.out
		if name == "" {
			name = rep.FileName + ext
		}
		if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
			return fail(fmt.Errorf("write report: %w", err))
		}
		c.env.logger.Info("Report written", "file", name, "trip_id", trip.ID)
	}
	return subcommands.ExitSuccess
}
