package table

import (
	"fmt"
	"io"
	"strconv"

	pretty "github.com/jedib0t/go-pretty/v6/table"
)

type columnInfo struct {
	name    string
	dtype   string
	nonNull func(Row) bool
}

func always(Row) bool { return true }

var columnInfos = []columnInfo{
	{"agent", "string", always},
	{"benchmark_start_time", "datetime (UTC)", always},
	{"challenge", "string", always},
	{"attempted", "bool", func(r Row) bool { return r.Attempted != nil }},
	{"categories", "string", always},
	{"task", "string", func(r Row) bool { return r.Task != nil }},
	{"success", "float64", func(r Row) bool { return r.Success != nil }},
	{"difficulty", "string", always},
	{"success_%", "float64", func(r Row) bool { return r.SuccessPercent != nil }},
	{"run_time", "string", func(r Row) bool { return r.RunTime != nil }},
	{"is_regression", "bool", always},
	{"report_time", "datetime (UTC)", always},
}

// WriteInfo writes the table shape and per-column non-null counts and types.
func (t *Table) WriteInfo(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d rows x %d columns\n", t.Len(), len(columnInfos)); err != nil {
		return err
	}
	if t.Len() > 0 {
		first, last := t.Rows[0].StartTime, t.Rows[0].StartTime
		for _, r := range t.Rows[1:] {
			if r.StartTime.Before(first) {
				first = r.StartTime
			}
			if r.StartTime.After(last) {
				last = r.StartTime
			}
		}
		if _, err := fmt.Fprintf(w, "benchmark_start_time: %s .. %s\n", first.Format(timeLayout), last.Format(timeLayout)); err != nil {
			return err
		}
	}

	pt := pretty.NewWriter()
	pt.SetOutputMirror(w)
	pt.SetStyle(pretty.StyleLight)
	pt.AppendHeader(pretty.Row{"#", "Column", "Non-Null Count", "Dtype"})
	for i, col := range columnInfos {
		count := 0
		for _, r := range t.Rows {
			if col.nonNull(r) {
				count++
			}
		}
		pt.AppendRow(pretty.Row{i, col.name, strconv.Itoa(count) + " non-null", col.dtype})
	}
	pt.Render()
	return nil
}
