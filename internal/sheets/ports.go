package sheets

import (
	"context"

	"splitsmart/internal/notify"
	"splitsmart/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportExporter writes a rendered report into a spreadsheet and returns
	// the range that was written.
	ReportExporter interface {
		ExportReport(ctx context.Context, r report.Report) (rowRef string, err error)
	}

	// ActivityRecorder appends one row per delivered notification.
	ActivityRecorder interface {
		RecordActivity(ctx context.Context, n notify.Notification) error
	}
)
