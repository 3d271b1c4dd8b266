// Package export copies a final table into a SQL database for ad-hoc analysis.
// Every export is recorded as one row in "exports" and tags its rows in
// "flat_rows" with that export's id, so repeated exports accumulate.
package export

import (
	"time"

	"github.com/google/uuid"

	"github.com/codalotl/benchtable/internal/table"
)

// Summary describes one completed export.
type Summary struct {
	ID         string
	ExportedAt time.Time
	Rows       int
}

// columns of flat_rows, in insert order.
var columns = []string{
	"export_id",
	"agent",
	"benchmark_start_time",
	"challenge",
	"attempted",
	"categories",
	"task",
	"success",
	"difficulty",
	"success_pct",
	"run_time",
	"is_regression",
	"report_time",
}

var (
	newID = func() string { return uuid.New().String() }
	now   = func() time.Time { return time.Now().UTC() }
)

// rowValues returns the flat_rows values for r. ts converts timestamps to the
// driver's preferred representation.
func rowValues(exportID string, r table.Row, ts func(time.Time) any) []any {
	return []any{
		exportID,
		r.Agent,
		ts(r.StartTime),
		r.Challenge,
		nullable(r.Attempted),
		r.Categories,
		nullable(r.Task),
		nullable(r.Success),
		r.Difficulty,
		nullable(r.SuccessPercent),
		nullable(r.RunTime),
		r.IsRegression,
		ts(r.ReportTime),
	}
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
