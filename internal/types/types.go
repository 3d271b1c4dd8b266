package types

import (
	"encoding/json"
	"strings"

	"github.com/mattn/go-shellwords"
)

// MetricsOverall is the aggregate metrics block of a report or a suite.
type MetricsOverall struct {
	RunTime           string   `json:"run_time" yaml:"run_time"`
	HighestDifficulty string   `json:"highest_difficulty" yaml:"highest_difficulty"`
	Percentage        *float64 `json:"percentage,omitempty" yaml:"percentage,omitempty"`
}

// Metrics is the result block of a single test.
type Metrics struct {
	Difficulty     string  `json:"difficulty" yaml:"difficulty"`
	Success        bool    `json:"success" yaml:"success"`
	SuccessPercent float64 `json:"success_%" yaml:"success_%"`
	RunTime        *string `json:"run_time,omitempty" yaml:"run_time,omitempty"`
	FailReason     *string `json:"fail_reason,omitempty" yaml:"fail_reason,omitempty"`
	Attempted      *bool   `json:"attempted,omitempty" yaml:"attempted,omitempty"`
}

type SingleTest struct {
	DataPath      string   `json:"data_path" yaml:"data_path"`
	IsRegression  bool     `json:"is_regression" yaml:"is_regression"`
	Answer        string   `json:"answer" yaml:"answer"`
	Description   string   `json:"description" yaml:"description"`
	Metrics       Metrics  `json:"metrics" yaml:"metrics"`
	Category      []string `json:"category" yaml:"category"`
	Task          *string  `json:"task,omitempty" yaml:"task,omitempty"`
	ReachedCutoff *bool    `json:"reached_cutoff,omitempty" yaml:"reached_cutoff,omitempty"`
}

// NamedTest is a sub-test of a suite. Suites keep their sub-tests in file order.
type NamedTest struct {
	Name string     `json:"name" yaml:"name"`
	Test SingleTest `json:"test" yaml:"test"`
}

type SuiteTest struct {
	DataPath      string         `json:"data_path" yaml:"data_path"`
	Metrics       MetricsOverall `json:"metrics" yaml:"metrics"`
	Tests         []NamedTest    `json:"tests" yaml:"tests"`
	Category      []string       `json:"category,omitempty" yaml:"category,omitempty"`
	Task          *string        `json:"task,omitempty" yaml:"task,omitempty"`
	ReachedCutoff *bool          `json:"reached_cutoff,omitempty" yaml:"reached_cutoff,omitempty"`
}

// TestKind identifies which shape a tests entry has.
type TestKind int

const (
	KindSingle TestKind = iota
	// KindSameTaskSuite is a suite with a non-empty category: its sub-tests are one task.
	KindSameTaskSuite
	// KindIndependentSuite is a suite without category: a container of separate tasks.
	KindIndependentSuite
)

func (k TestKind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindSameTaskSuite:
		return "same-task-suite"
	case KindIndependentSuite:
		return "independent-suite"
	default:
		return "unknown"
	}
}

func (k TestKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// TestEntry is one value of Report.Tests. Exactly one of Single and Suite is set,
// according to Kind.
type TestEntry struct {
	Name   string      `json:"name" yaml:"name"`
	Kind   TestKind    `json:"kind" yaml:"kind"`
	Single *SingleTest `json:"single,omitempty" yaml:"single,omitempty"`
	Suite  *SuiteTest  `json:"suite,omitempty" yaml:"suite,omitempty"`
}

// SuiteKind classifies a suite by the presence of its category.
func SuiteKind(s *SuiteTest) TestKind {
	if len(s.Category) > 0 {
		return KindSameTaskSuite
	}
	return KindIndependentSuite
}

// ConfigValue is a report config value: either a plain string or a string map.
type ConfigValue struct {
	String *string
	Map    map[string]string
}

func (v ConfigValue) MarshalJSON() ([]byte, error) {
	if v.String != nil {
		return json.Marshal(*v.String)
	}
	return json.Marshal(v.Map)
}

func (v ConfigValue) MarshalYAML() (any, error) {
	if v.String != nil {
		return *v.String, nil
	}
	return v.Map, nil
}

// Report is one benchmark run's report.json.
type Report struct {
	Command            string                 `json:"command" yaml:"command"`
	CompletionTime     string                 `json:"completion_time" yaml:"completion_time"`
	BenchmarkStartTime string                 `json:"benchmark_start_time" yaml:"benchmark_start_time"`
	Metrics            MetricsOverall         `json:"metrics" yaml:"metrics"`
	Tests              []TestEntry            `json:"tests" yaml:"tests"`
	Config             map[string]ConfigValue `json:"config" yaml:"config"`
}

// Args splits the report command into argv using shell quoting rules.
func (r *Report) Args() ([]string, error) {
	return shellwords.Parse(strings.TrimSpace(r.Command))
}

// IsMock reports whether the run was started with --mock. Commands that cannot
// be split are treated as real runs.
func (r *Report) IsMock() bool {
	args, err := r.Args()
	if err != nil {
		return false
	}
	for _, arg := range args {
		if arg == "--mock" || arg == "--mock=true" {
			return true
		}
	}
	return false
}

// FlatRow is one challenge outcome within one run. Optional fields stay nil when
// the source report does not carry them.
type FlatRow struct {
	Agent              string   `json:"agent"`
	BenchmarkStartTime string   `json:"benchmark_start_time"`
	Challenge          string   `json:"challenge"`
	Attempted          *bool    `json:"attempted"`
	Categories         string   `json:"categories"`
	Task               *string  `json:"task"`
	Success            *float64 `json:"success"`
	Difficulty         string   `json:"difficulty"`
	SuccessPercent     *float64 `json:"success_%"`
	RunTime            *string  `json:"run_time"`
	IsRegression       bool     `json:"is_regression"`
}
