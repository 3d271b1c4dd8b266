package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const timeLayout = time.RFC3339

// WriteCSV writes the table with a header row. Absent optional values are
// written as empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	if w == nil {
		return errors.New("writer is nil")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := []string{
			row.Agent,
			row.StartTime.UTC().Format(timeLayout),
			row.Challenge,
			formatBool(row.Attempted),
			row.Categories,
			formatString(row.Task),
			formatFloat(row.Success),
			row.Difficulty,
			formatFloat(row.SuccessPercent),
			formatString(row.RunTime),
			strconv.FormatBool(row.IsRegression),
			row.ReportTime.UTC().Format(timeLayout),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a table written by WriteCSV. The raw start time of each row is
// set to its normalized form.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("table is empty: missing header")
		}
		return nil, err
	}
	if strings.Join(header, ",") != strings.Join(Columns, ",") {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	t := &Table{}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func parseRecord(record []string) (Row, error) {
	var row Row
	var err error
	row.Agent = record[0]
	if row.StartTime, err = time.Parse(timeLayout, record[1]); err != nil {
		return Row{}, fmt.Errorf("benchmark_start_time: %w", err)
	}
	row.BenchmarkStartTime = record[1]
	row.Challenge = record[2]
	if row.Attempted, err = parseBool(record[3]); err != nil {
		return Row{}, fmt.Errorf("attempted: %w", err)
	}
	row.Categories = record[4]
	row.Task = parseString(record[5])
	if row.Success, err = parseFloat(record[6]); err != nil {
		return Row{}, fmt.Errorf("success: %w", err)
	}
	row.Difficulty = record[7]
	if row.SuccessPercent, err = parseFloat(record[8]); err != nil {
		return Row{}, fmt.Errorf("success_%%: %w", err)
	}
	row.RunTime = parseString(record[9])
	if row.IsRegression, err = strconv.ParseBool(record[10]); err != nil {
		return Row{}, fmt.Errorf("is_regression: %w", err)
	}
	if row.ReportTime, err = time.Parse(timeLayout, record[11]); err != nil {
		return Row{}, fmt.Errorf("report_time: %w", err)
	}
	return row, nil
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseBool(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func parseString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
