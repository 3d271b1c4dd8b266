package cli

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/codalotl/benchtable/internal/table"
)

const (
	beginResultsMarker = "<!-- BEGIN_RESULTS -->"
	endResultsMarker   = "<!-- END_RESULTS -->"
)

func publishReport(rootDir string, t *table.Table, command string, at time.Time) (string, error) {
	if strings.TrimSpace(rootDir) == "" {
		return "", errors.New("rootDir is required")
	}
	if t == nil {
		return "", errors.New("table is nil")
	}

	stamp := at.In(time.Local).Format("2006-01-02_15-04-05")
	summaryRel := filepath.Join("result_summaries", "summary_"+stamp)
	summaryDir := filepath.Join(rootDir, summaryRel)
	if err := os.MkdirAll(summaryDir, 0o755); err != nil {
		return "", err
	}

	var csvBuf bytes.Buffer
	if err := t.WriteCSV(&csvBuf); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(summaryDir, "df.csv"), csvBuf.Bytes(), 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(summaryDir, "command"), []byte(strings.TrimSpace(command)+"\n"), 0o644); err != nil {
		return "", err
	}

	md := agentMarkdownTable(summarizeAgents(t))
	summaryLink := filepath.ToSlash(summaryRel)
	dateOnly := at.In(time.Local).Format("2006-01-02")
	resultsLine := fmt.Sprintf("Results as of %s. See [%s](%s).", dateOnly, summaryLink, summaryLink)
	replacement := strings.TrimRight(md, "\n") + "\n\n" + resultsLine + "\n"
	if err := updateReadmeResults(rootDir, replacement); err != nil {
		return "", err
	}

	return summaryRel, nil
}

// agentSummary aggregates the rows of one agent.
type agentSummary struct {
	Agent      string
	Runs       int
	Rows       int
	AvgSuccess float64
	LatestRun  time.Time
}

func summarizeAgents(t *table.Table) []agentSummary {
	type acc struct {
		runs    map[time.Time]struct{}
		rows    int
		sum     float64
		counted int
		latest  time.Time
	}
	byAgent := map[string]*acc{}
	for _, r := range t.Rows {
		a := byAgent[r.Agent]
		if a == nil {
			a = &acc{runs: map[time.Time]struct{}{}}
			byAgent[r.Agent] = a
		}
		a.runs[r.StartTime] = struct{}{}
		a.rows++
		if r.Success != nil {
			a.sum += *r.Success
			a.counted++
		}
		if r.StartTime.After(a.latest) {
			a.latest = r.StartTime
		}
	}

	out := make([]agentSummary, 0, len(byAgent))
	for agent, a := range byAgent {
		s := agentSummary{Agent: agent, Runs: len(a.runs), Rows: a.rows, LatestRun: a.latest}
		if a.counted > 0 {
			s.AvgSuccess = a.sum / float64(a.counted)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

func agentMarkdownTable(rows []agentSummary) string {
	var b strings.Builder
	b.WriteString("| Agent | Runs | Challenges | Avg Success | Latest Run |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, row := range rows {
		avg := math.Round(row.AvgSuccess*10) / 10
		latest := row.LatestRun.UTC().Format("2006-01-02 15:04")
		b.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f%% | %s |\n", row.Agent, row.Runs, row.Rows, avg, latest))
	}
	return b.String()
}

func updateReadmeResults(rootDir string, replacement string) error {
	readmePath := filepath.Join(rootDir, "README.md")
	data, err := os.ReadFile(readmePath)
	if err != nil {
		return err
	}
	updated, err := replaceBetweenMarkers(string(data), beginResultsMarker, endResultsMarker, replacement)
	if err != nil {
		return err
	}
	return os.WriteFile(readmePath, []byte(updated), 0o644)
}

func replaceBetweenMarkers(doc, beginMarker, endMarker, replacement string) (string, error) {
	beginIdx := strings.Index(doc, beginMarker)
	if beginIdx < 0 {
		return "", fmt.Errorf("missing marker %q", beginMarker)
	}
	beginLineEnd := strings.Index(doc[beginIdx:], "\n")
	if beginLineEnd < 0 {
		return "", errors.New("begin marker line missing newline")
	}
	insertStart := beginIdx + beginLineEnd + 1

	endIdx := strings.Index(doc, endMarker)
	if endIdx < 0 {
		return "", fmt.Errorf("missing marker %q", endMarker)
	}
	if endIdx < insertStart {
		return "", errors.New("end marker precedes begin marker")
	}

	return doc[:insertStart] + replacement + doc[endIdx:], nil
}

func formatCommandForPublish(args []string) string {
	parts := []string{"benchtable"}
	if len(args) > 1 {
		for _, arg := range args[1:] {
			parts = append(parts, shellQuote(arg))
		}
	}
	return strings.Join(parts, " ")
}

func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	safe := true
	for _, r := range arg {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.' || r == '/' || r == ':' || r == ',' || r == '=':
		default:
			safe = false
		}
		if !safe {
			break
		}
	}
	if safe {
		return arg
	}
	// POSIX shell single-quote escaping: close, escape, reopen.
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
