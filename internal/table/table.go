// Package table holds the flattened benchmark table: date normalization of raw
// rows, the CSV artifact, the raw row cache, and the info summary.
package table

import (
	"log/slog"
	"time"

	"github.com/codalotl/benchtable/internal/dates"
	"github.com/codalotl/benchtable/internal/types"
)

// Columns is the header of the final table, in order.
var Columns = []string{
	"agent",
	"benchmark_start_time",
	"challenge",
	"attempted",
	"categories",
	"task",
	"success",
	"difficulty",
	"success_%",
	"run_time",
	"is_regression",
	"report_time",
}

// Row is a flat row whose start time has been normalized. BenchmarkStartTime
// in the embedded FlatRow keeps the raw string.
type Row struct {
	types.FlatRow
	StartTime  time.Time
	ReportTime time.Time
}

type Table struct {
	Rows []Row
}

// Normalize parses the start time of every raw row. Rows whose start time
// matches no known layout are dropped; the number dropped is returned.
func Normalize(raw []types.FlatRow, logger *slog.Logger) (*Table, int) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Table{Rows: make([]Row, 0, len(raw))}
	dropped := 0
	for _, r := range raw {
		ts, ok := dates.Parse(r.BenchmarkStartTime)
		if !ok {
			dropped++
			logger.Debug("dropping row with unparsable start time",
				slog.String("agent", r.Agent),
				slog.String("challenge", r.Challenge),
				slog.String("benchmark_start_time", r.BenchmarkStartTime))
			continue
		}
		t.Rows = append(t.Rows, Row{FlatRow: r, StartTime: ts, ReportTime: ts})
	}
	return t, dropped
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
