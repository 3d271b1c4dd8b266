package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Entry is one member of a report's "tests" object.
type Entry struct {
	Name string
	Body string
}

// SingleTest returns the JSON body of a single test result.
func SingleTest(success bool, categories ...string) string {
	pct := 0
	if success {
		pct = 100
	}
	return fmt.Sprintf(`{"data_path":"challenges/data.json","is_regression":false,"answer":"42","description":"d",`+
		`"metrics":{"difficulty":"basic","success":%t,"success_%%":%d,"run_time":"1.5 seconds","attempted":true},`+
		`"category":%s,"task":"do the thing"}`, success, pct, stringList(categories))
}

// Suite returns the JSON body of a suite. A nil category omits the field,
// making the suite a container of independent tests.
func Suite(percentage float64, category []string, subTests ...Entry) string {
	cat := ""
	if category != nil {
		cat = `"category":` + stringList(category) + `,`
	}
	return fmt.Sprintf(`{"data_path":"challenges/suite","metrics":{"run_time":"30 seconds","highest_difficulty":"intermediate: 4","percentage":%g},`+
		`%s"task":"suite task","tests":%s}`, percentage, cat, object(subTests))
}

// Report returns a full report.json document.
func Report(startTime string, tests ...Entry) string {
	return ReportCommand("agbenchmark start", startTime, tests...)
}

// ReportCommand is Report with an explicit command line.
func ReportCommand(command, startTime string, tests ...Entry) string {
	return fmt.Sprintf(`{"command":%q,"completion_time":"2024-01-15-10:00","benchmark_start_time":%q,`+
		`"metrics":{"run_time":"60 seconds","highest_difficulty":"basic: 2"},"tests":%s,"config":{"workspace":"ws"}}`,
		command, startTime, object(tests))
}

// WriteReport writes doc to root/agent/run/report.json and returns its path.
func WriteReport(t testing.TB, root, agent, run, doc string) string {
	t.Helper()
	dir := filepath.Join(root, agent, run)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, "report.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func object(entries []Entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%q:%s", e.Name, e.Body))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func stringList(items []string) string {
	quoted := make([]string, 0, len(items))
	for _, s := range items {
		quoted = append(quoted, fmt.Sprintf("%q", s))
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
