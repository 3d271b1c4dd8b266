package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrinterPlainWhenNotATerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPrinter(&buf)
	require.NoError(t, p.App("Processing reports/a/1/report.json"))
	require.NoError(t, p.Appf("Processing %s", "reports/a/2/report.json"))
	require.NoError(t, p.Block("table\nrows"))
	require.NoError(t, p.Note("hint"))
	require.NoError(t, p.App(""))

	want := "Processing reports/a/1/report.json\n" +
		"Processing reports/a/2/report.json\n" +
		"\n" +
		"table\nrows\n" +
		"\n" +
		"hint\n"
	require.Equal(t, want, buf.String())
}

func TestPrinterNilWriter(t *testing.T) {
	t.Parallel()

	p := NewPrinter(nil)
	require.NoError(t, p.App("discarded"))
}
