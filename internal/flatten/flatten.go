// Package flatten turns a validated report into one row per logical test.
package flatten

import (
	"fmt"
	"strings"

	"github.com/codalotl/benchtable/internal/types"
)

// MalformedSuiteError is returned for a same-task suite that has no sub-tests
// to take the attempted and is_regression values from.
type MalformedSuiteError struct {
	Suite string
}

func (e *MalformedSuiteError) Error() string {
	return fmt.Sprintf("suite %q has a category but no sub-tests", e.Suite)
}

// Report flattens r into rows for agent. Rows follow the order of tests and
// sub-tests in the report file.
func Report(agent string, r *types.Report) ([]types.FlatRow, error) {
	if r == nil {
		return nil, nil
	}
	base := types.FlatRow{
		Agent:              strings.ToLower(agent),
		BenchmarkStartTime: r.BenchmarkStartTime,
	}

	var rows []types.FlatRow
	for _, entry := range r.Tests {
		switch entry.Kind {
		case types.KindSameTaskSuite:
			row, err := sameTaskRow(base, entry.Name, entry.Suite)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		case types.KindIndependentSuite:
			for _, sub := range entry.Suite.Tests {
				rows = append(rows, singleRow(base, sub.Name, &sub.Test))
			}
		case types.KindSingle:
			rows = append(rows, singleRow(base, entry.Name, entry.Single))
		default:
			return nil, fmt.Errorf("test %q: unknown kind %d", entry.Name, entry.Kind)
		}
	}
	return rows, nil
}

// sameTaskRow scores the suite as one challenge using its aggregate
// percentage. attempted and is_regression come from the first sub-test.
func sameTaskRow(base types.FlatRow, name string, suite *types.SuiteTest) (types.FlatRow, error) {
	if len(suite.Tests) == 0 {
		return types.FlatRow{}, &MalformedSuiteError{Suite: name}
	}
	first := suite.Tests[0].Test
	runTime := suite.Metrics.RunTime

	row := base
	row.Challenge = name
	row.Attempted = first.Metrics.Attempted
	row.Categories = joinCategories(suite.Category)
	row.Task = suite.Task
	row.Success = suite.Metrics.Percentage
	row.Difficulty = suite.Metrics.HighestDifficulty
	row.SuccessPercent = suite.Metrics.Percentage
	row.RunTime = &runTime
	row.IsRegression = first.IsRegression
	return row, nil
}

func singleRow(base types.FlatRow, name string, t *types.SingleTest) types.FlatRow {
	success := 0.0
	if t.Metrics.Success {
		success = 100.0
	}
	successPercent := t.Metrics.SuccessPercent

	row := base
	row.Challenge = name
	row.Attempted = t.Metrics.Attempted
	row.Categories = joinCategories(t.Category)
	row.Task = t.Task
	row.Success = &success
	row.Difficulty = t.Metrics.Difficulty
	row.SuccessPercent = &successPercent
	row.RunTime = t.Metrics.RunTime
	row.IsRegression = t.IsRegression
	return row
}

func joinCategories(cats []string) string {
	return strings.Join(cats, ", ")
}
