package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codalotl/benchtable/internal/types"
)

const validReport = `{
  "command": "agbenchmark start --test=TestWriteFile",
  "completion_time": "2023-08-30-08:15",
  "benchmark_start_time": "2023-08-30-08:13",
  "metrics": {"run_time": "120.5 seconds", "highest_difficulty": "intermediate: 4", "percentage": 50},
  "tests": {
    "TestWriteFile": {
      "data_path": "agbenchmark/challenges/interface/write_file/data.json",
      "is_regression": true,
      "answer": "The word 'Washington', printed to a .txt file named anything",
      "description": "Tests the agents ability to write to a file",
      "metrics": {"difficulty": "interface", "success": true, "success_%": 100.0, "run_time": "13.4 seconds", "attempted": true},
      "category": ["interface"],
      "task": "Write the word 'Washington' to a .txt file",
      "reached_cutoff": false
    },
    "TestRememberMultipleIds": {
      "data_path": "agbenchmark/challenges/memory/m2",
      "metrics": {"run_time": "60 seconds", "highest_difficulty": "novice: 3", "percentage": 33.33},
      "category": ["memory"],
      "task": "Remember the ids",
      "tests": {
        "TestRememberMultipleIds_0": {
          "data_path": "m2/0", "is_regression": false, "answer": "2314", "description": "first",
          "metrics": {"difficulty": "novice", "success": true, "success_%": 100.0, "attempted": true},
          "category": ["memory"]
        },
        "TestRememberMultipleIds_1": {
          "data_path": "m2/1", "is_regression": true, "answer": "3145", "description": "second",
          "metrics": {"difficulty": "novice", "success": false, "success_%": 0.0, "fail_reason": "timeout", "attempted": false},
          "category": ["memory"]
        }
      }
    },
    "TestReturnCode": {
      "data_path": "agbenchmark/challenges/code/c1",
      "metrics": {"run_time": "40 seconds", "highest_difficulty": "basic: 2"},
      "tests": {
        "TestReturnCode_Simple": {
          "data_path": "c1/simple", "is_regression": false, "answer": "", "description": "simple",
          "metrics": {"difficulty": "basic", "success": true, "success_%": 100.0},
          "category": ["code", "iterate"]
        }
      }
    }
  },
  "config": {"workspace": "auto_gpt_workspace", "entry_path": {"agent": "agbenchmark.benchmarks"}}
}`

func TestParseValidReport(t *testing.T) {
	t.Parallel()

	rep, err := Parse([]byte(validReport))
	require.NoError(t, err)

	assert.Equal(t, "agbenchmark start --test=TestWriteFile", rep.Command)
	assert.Equal(t, "2023-08-30-08:13", rep.BenchmarkStartTime)
	assert.Equal(t, "intermediate: 4", rep.Metrics.HighestDifficulty)
	require.NotNil(t, rep.Metrics.Percentage)
	assert.InDelta(t, 50.0, *rep.Metrics.Percentage, 1e-9)

	require.Len(t, rep.Tests, 3)
	assert.Equal(t, "TestWriteFile", rep.Tests[0].Name)
	assert.Equal(t, types.KindSingle, rep.Tests[0].Kind)
	require.NotNil(t, rep.Tests[0].Single)
	assert.Nil(t, rep.Tests[0].Suite)
	assert.True(t, rep.Tests[0].Single.Metrics.Success)
	assert.InDelta(t, 100.0, rep.Tests[0].Single.Metrics.SuccessPercent, 1e-9)
	assert.Nil(t, rep.Tests[0].Single.Metrics.FailReason)

	assert.Equal(t, "TestRememberMultipleIds", rep.Tests[1].Name)
	assert.Equal(t, types.KindSameTaskSuite, rep.Tests[1].Kind)
	require.NotNil(t, rep.Tests[1].Suite)
	require.Len(t, rep.Tests[1].Suite.Tests, 2)
	assert.Equal(t, "TestRememberMultipleIds_0", rep.Tests[1].Suite.Tests[0].Name)
	assert.Equal(t, "TestRememberMultipleIds_1", rep.Tests[1].Suite.Tests[1].Name)
	require.NotNil(t, rep.Tests[1].Suite.Tests[1].Test.Metrics.FailReason)
	assert.Equal(t, "timeout", *rep.Tests[1].Suite.Tests[1].Test.Metrics.FailReason)

	assert.Equal(t, types.KindIndependentSuite, rep.Tests[2].Kind)
	assert.Nil(t, rep.Tests[2].Suite.Metrics.Percentage)

	require.Contains(t, rep.Config, "workspace")
	require.NotNil(t, rep.Config["workspace"].String)
	assert.Equal(t, "auto_gpt_workspace", *rep.Config["workspace"].String)
	assert.Equal(t, map[string]string{"agent": "agbenchmark.benchmarks"}, rep.Config["entry_path"].Map)
}

func TestParseKeepsFileOrder(t *testing.T) {
	t.Parallel()

	doc := `{"command":"c","completion_time":"x","benchmark_start_time":"y",
	"metrics":{"run_time":"1","highest_difficulty":"d"},
	"tests":{
	  "zeta":{"data_path":"p","metrics":{"run_time":"1","highest_difficulty":"d"},"category":["c"],"tests":{
	    "z_sub":{"data_path":"p","is_regression":true,"answer":"a","description":"d","metrics":{"difficulty":"d","success":true,"success_%":100},"category":["c"]},
	    "a_sub":{"data_path":"p","is_regression":false,"answer":"a","description":"d","metrics":{"difficulty":"d","success":false,"success_%":0},"category":["c"]}
	  }},
	  "alpha":{"data_path":"p","is_regression":false,"answer":"a","description":"d","metrics":{"difficulty":"d","success":false,"success_%":0},"category":[]}
	},
	"config":{}}`

	rep, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, rep.Tests, 2)
	assert.Equal(t, "zeta", rep.Tests[0].Name)
	assert.Equal(t, "alpha", rep.Tests[1].Name)
	assert.Equal(t, "z_sub", rep.Tests[0].Suite.Tests[0].Name)
	assert.Equal(t, "a_sub", rep.Tests[0].Suite.Tests[1].Name)
}

func TestParseReportsFieldPaths(t *testing.T) {
	t.Parallel()

	doc := `{"command": 5, "completion_time":"x",
	"metrics":{"run_time":"1","highest_difficulty":"d"},
	"tests":{},
	"config":{"k": 1}}`

	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var verr *SchemaValidationError
	require.True(t, errors.As(err, &verr))
	paths := map[string]string{}
	for _, fe := range verr.Errors {
		paths[fe.Path] = fe.Reason
	}
	assert.Equal(t, "expected string, got number", paths["command"])
	assert.Equal(t, "required field missing", paths["benchmark_start_time"])
	assert.Equal(t, "expected string or object of strings, got number", paths["config.k"])
	assert.Contains(t, err.Error(), "benchmark_start_time: required field missing")
}

func TestParseUnionFailureListsBothShapes(t *testing.T) {
	t.Parallel()

	doc := `{"command":"c","completion_time":"x","benchmark_start_time":"y",
	"metrics":{"run_time":"1","highest_difficulty":"d"},
	"tests":{"broken":{"data_path":"p","metrics":{"difficulty":"d","success":"yes","success_%":100},"category":["c"]}},
	"config":{}}`

	_, err := Parse([]byte(doc))
	var verr *SchemaValidationError
	require.ErrorAs(t, err, &verr)

	var reasons []string
	for _, fe := range verr.Errors {
		reasons = append(reasons, fe.String())
	}
	assert.Contains(t, reasons, "tests.broken.is_regression: as single test: required field missing")
	assert.Contains(t, reasons, "tests.broken.metrics.success: as single test: expected boolean, got string")
	assert.Contains(t, reasons, "tests.broken.tests: as suite: required field missing")
}

func TestParseRejectsCoercion(t *testing.T) {
	t.Parallel()

	doc := `{"command":"c","completion_time":"x","benchmark_start_time":"y",
	"metrics":{"run_time":"1","highest_difficulty":"d","percentage":"50"},
	"tests":{},"config":{}}`

	_, err := Parse([]byte(doc))
	var verr *SchemaValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "metrics.percentage", verr.Errors[0].Path)
}

func TestParseDuplicateTestName(t *testing.T) {
	t.Parallel()

	single := `{"data_path":"p","is_regression":false,"answer":"a","description":"d","metrics":{"difficulty":"d","success":true,"success_%":100},"category":["c"]}`
	doc := `{"command":"c","completion_time":"x","benchmark_start_time":"y",
	"metrics":{"run_time":"1","highest_difficulty":"d"},
	"tests":{"dup":` + single + `,"dup":` + single + `},"config":{}}`

	_, err := Parse([]byte(doc))
	var verr *SchemaValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "tests.dup", verr.Errors[0].Path)
	assert.Equal(t, "duplicate key", verr.Errors[0].Reason)
}

func TestParseInvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"command": `))
	require.Error(t, err)
	var verr *SchemaValidationError
	assert.False(t, errors.As(err, &verr))
}
