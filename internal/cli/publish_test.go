package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/stretchr/testify/require"

	"github.com/codalotl/benchtable/internal/table"
	"github.com/codalotl/benchtable/internal/types"
)

func ptr[T any](v T) *T { return &v }

func publishTable() *table.Table {
	early := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	late := time.Date(2024, 1, 16, 11, 0, 0, 0, time.UTC)
	row := func(agent, challenge string, at time.Time, success *float64) table.Row {
		return table.Row{
			FlatRow: types.FlatRow{
				Agent:              agent,
				BenchmarkStartTime: at.Format("2006-01-02-15:04"),
				Challenge:          challenge,
				Categories:         "code",
				Success:            success,
				SuccessPercent:     success,
				Difficulty:         "basic",
			},
			StartTime:  at,
			ReportTime: at,
		}
	}
	return &table.Table{Rows: []table.Row{
		row("mini-agi", "t1", early, ptr(100.0)),
		row("beebot", "t1", early, ptr(100.0)),
		row("beebot", "t2", early, ptr(0.0)),
		row("beebot", "t1", late, ptr(100.0)),
		row("beebot", "t3", late, nil),
	}}
}

func TestPublishReportWritesFilesAndUpdatesReadme(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	readme := "# demo\n\n## Results\n\n" + beginResultsMarker + "\nold\n" + endResultsMarker + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0o644))

	tbl := publishTable()
	at := time.Date(2025, 12, 14, 10, 11, 12, 0, time.Local)
	stamp := at.Format("2006-01-02_15-04-05")
	dateOnly := at.Format("2006-01-02")

	summaryRel, err := publishReport(root, tbl, "benchtable build --publish", at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("result_summaries", "summary_"+stamp), summaryRel)

	summaryDir := filepath.Join(root, summaryRel)

	var wantCSV bytes.Buffer
	require.NoError(t, tbl.WriteCSV(&wantCSV))
	gotCSV, err := os.ReadFile(filepath.Join(summaryDir, "df.csv"))
	require.NoError(t, err)
	require.Equal(t, wantCSV.String(), string(gotCSV))

	gotCmd, err := os.ReadFile(filepath.Join(summaryDir, "command"))
	require.NoError(t, err)
	require.Equal(t, "benchtable build --publish\n", string(gotCmd))

	updated, err := os.ReadFile(filepath.Join(root, "README.md"))
	require.NoError(t, err)
	require.NotContains(t, string(updated), "\nold\n")
	require.Contains(t, string(updated), "| Agent | Runs | Challenges | Avg Success | Latest Run |")
	require.Contains(t, string(updated), "| beebot | 2 | 4 | 66.7% | 2024-01-16 11:00 |\n| mini-agi | 1 | 1 | 100.0% | 2024-01-15 09:30 |")
	require.Contains(t, string(updated), "Results as of "+dateOnly+". See [result_summaries/summary_"+stamp+"](result_summaries/summary_"+stamp+").")
}

func TestPublishReportRequiresMarkers(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# no markers\n"), 0o644))

	_, err := publishReport(root, publishTable(), "benchtable build --publish", time.Now())
	require.ErrorContains(t, err, "missing marker")
}

func TestReplaceBetweenMarkers(t *testing.T) {
	t.Parallel()

	doc := "a\n" + beginResultsMarker + "\nx\ny\n" + endResultsMarker + "\nb\n"
	got, err := replaceBetweenMarkers(doc, beginResultsMarker, endResultsMarker, "new\n")
	require.NoError(t, err)
	require.Equal(t, "a\n"+beginResultsMarker+"\nnew\n"+endResultsMarker+"\nb\n", got)

	_, err = replaceBetweenMarkers(endResultsMarker+"\n"+beginResultsMarker+"\n", beginResultsMarker, endResultsMarker, "")
	require.ErrorContains(t, err, "end marker precedes begin marker")
}

func TestShellQuote(t *testing.T) {
	t.Parallel()

	require.Equal(t, "simple", shellQuote("simple"))
	require.Equal(t, "''", shellQuote(""))
	require.Equal(t, "'has space'", shellQuote("has space"))
	require.Equal(t, "'a'\\''b'", shellQuote("a'b"))
	require.Equal(t, "benchtable build '--agents=a b'", formatCommandForPublish([]string{"/tmp/gnarly/benchtable", "build", "--agents=a b"}))
}

func TestFormatCommandForPublishRoundTrips(t *testing.T) {
	t.Parallel()

	args := []string{"/usr/local/bin/benchtable", "build", "--output", "out dir/df.csv", "--agents=it's,beebot"}
	got, err := shellwords.Parse(formatCommandForPublish(args))
	require.NoError(t, err)
	require.Equal(t, append([]string{"benchtable"}, args[1:]...), got)
}
