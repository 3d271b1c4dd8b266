// Package schema validates report.json documents and decodes them into types.Report.
//
// Validation walks the raw document rather than relying on encoding/json so that
// every missing or mistyped field can be reported by path, and so that tests and
// sub-tests keep the order they have in the file.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/codalotl/benchtable/internal/types"
)

// FieldError is one schema violation at a dotted path such as
// "tests.TestWriteFile.metrics.success".
type FieldError struct {
	Path   string
	Reason string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Reason
	}
	return e.Path + ": " + e.Reason
}

// SchemaValidationError lists every violation found in one document.
type SchemaValidationError struct {
	Errors []FieldError
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.String())
	}
	return fmt.Sprintf("schema validation failed (%d errors): %s", len(e.Errors), strings.Join(parts, "; "))
}

// Parse validates data against the report schema. It returns a
// *SchemaValidationError when the document is JSON but has the wrong shape.
func Parse(data []byte) (*types.Report, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	v := &validator{}
	rep := v.report(root)
	if len(v.errs) > 0 {
		return nil, &SchemaValidationError{Errors: v.errs}
	}
	return rep, nil
}

type validator struct {
	errs []FieldError
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = append(v.errs, FieldError{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// object holds the members of a JSON object in document order.
type object struct {
	keys   []string
	fields map[string]gjson.Result
}

func (v *validator) object(r gjson.Result, path string) (object, bool) {
	if !r.IsObject() {
		v.fail(path, "expected object, got %s", kindOf(r))
		return object{}, false
	}
	obj := object{fields: map[string]gjson.Result{}}
	r.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := obj.fields[name]; dup {
			v.fail(join(path, name), "duplicate key")
			return true
		}
		obj.keys = append(obj.keys, name)
		obj.fields[name] = value
		return true
	})
	return obj, true
}

// member returns the field and whether it is present with a non-null value.
// Missing required fields are recorded.
func (v *validator) member(obj object, path, key string, required bool) (gjson.Result, bool) {
	r, ok := obj.fields[key]
	if !ok || r.Type == gjson.Null {
		if required {
			v.fail(join(path, key), "required field missing")
		}
		return gjson.Result{}, false
	}
	return r, true
}

func (v *validator) str(obj object, path, key string, required bool) *string {
	r, ok := v.member(obj, path, key, required)
	if !ok {
		return nil
	}
	if r.Type != gjson.String {
		v.fail(join(path, key), "expected string, got %s", kindOf(r))
		return nil
	}
	s := r.String()
	return &s
}

func (v *validator) boolean(obj object, path, key string, required bool) *bool {
	r, ok := v.member(obj, path, key, required)
	if !ok {
		return nil
	}
	if r.Type != gjson.True && r.Type != gjson.False {
		v.fail(join(path, key), "expected boolean, got %s", kindOf(r))
		return nil
	}
	b := r.Bool()
	return &b
}

func (v *validator) number(obj object, path, key string, required bool) *float64 {
	r, ok := v.member(obj, path, key, required)
	if !ok {
		return nil
	}
	if r.Type != gjson.Number {
		v.fail(join(path, key), "expected number, got %s", kindOf(r))
		return nil
	}
	f := r.Float()
	return &f
}

func (v *validator) strings(obj object, path, key string, required bool) ([]string, bool) {
	r, ok := v.member(obj, path, key, required)
	if !ok {
		return nil, false
	}
	if !r.IsArray() {
		v.fail(join(path, key), "expected array of strings, got %s", kindOf(r))
		return nil, false
	}
	out := []string{}
	for i, item := range r.Array() {
		if item.Type != gjson.String {
			v.fail(fmt.Sprintf("%s.%d", join(path, key), i), "expected string, got %s", kindOf(item))
			continue
		}
		out = append(out, item.String())
	}
	return out, true
}

func (v *validator) report(root gjson.Result) *types.Report {
	obj, ok := v.object(root, "")
	if !ok {
		return nil
	}
	rep := &types.Report{
		Command:            deref(v.str(obj, "", "command", true)),
		CompletionTime:     deref(v.str(obj, "", "completion_time", true)),
		BenchmarkStartTime: deref(v.str(obj, "", "benchmark_start_time", true)),
	}
	if r, ok := v.member(obj, "", "metrics", true); ok {
		if m := v.metricsOverall(r, "metrics"); m != nil {
			rep.Metrics = *m
		}
	}
	if r, ok := v.member(obj, "", "tests", true); ok {
		rep.Tests = v.tests(r, "tests")
	}
	if r, ok := v.member(obj, "", "config", true); ok {
		rep.Config = v.config(r, "config")
	}
	return rep
}

func (v *validator) metricsOverall(r gjson.Result, path string) *types.MetricsOverall {
	obj, ok := v.object(r, path)
	if !ok {
		return nil
	}
	return &types.MetricsOverall{
		RunTime:           deref(v.str(obj, path, "run_time", true)),
		HighestDifficulty: deref(v.str(obj, path, "highest_difficulty", true)),
		Percentage:        v.number(obj, path, "percentage", false),
	}
}

func (v *validator) metrics(r gjson.Result, path string) *types.Metrics {
	obj, ok := v.object(r, path)
	if !ok {
		return nil
	}
	m := &types.Metrics{
		Difficulty: deref(v.str(obj, path, "difficulty", true)),
		RunTime:    v.str(obj, path, "run_time", false),
		FailReason: v.str(obj, path, "fail_reason", false),
		Attempted:  v.boolean(obj, path, "attempted", false),
	}
	if b := v.boolean(obj, path, "success", true); b != nil {
		m.Success = *b
	}
	if f := v.number(obj, path, "success_%", true); f != nil {
		m.SuccessPercent = *f
	}
	return m
}

func (v *validator) tests(r gjson.Result, path string) []types.TestEntry {
	obj, ok := v.object(r, path)
	if !ok {
		return nil
	}
	entries := make([]types.TestEntry, 0, len(obj.keys))
	for _, name := range obj.keys {
		entry, ok := v.testEntry(name, obj.fields[name], join(path, name))
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// testEntry resolves the single/suite union: the single-test shape is tried
// first, then the suite shape. When neither matches, the failures of both
// attempts are reported.
func (v *validator) testEntry(name string, r gjson.Result, path string) (types.TestEntry, bool) {
	asSingle := &validator{}
	single := asSingle.singleTest(r, path)
	if len(asSingle.errs) == 0 {
		return types.TestEntry{Name: name, Kind: types.KindSingle, Single: single}, true
	}
	asSuite := &validator{}
	suite := asSuite.suiteTest(r, path)
	if len(asSuite.errs) == 0 {
		return types.TestEntry{Name: name, Kind: types.SuiteKind(suite), Suite: suite}, true
	}
	for _, fe := range asSingle.errs {
		v.fail(fe.Path, "as single test: %s", fe.Reason)
	}
	for _, fe := range asSuite.errs {
		v.fail(fe.Path, "as suite: %s", fe.Reason)
	}
	return types.TestEntry{}, false
}

func (v *validator) singleTest(r gjson.Result, path string) *types.SingleTest {
	obj, ok := v.object(r, path)
	if !ok {
		return nil
	}
	t := &types.SingleTest{
		DataPath:      deref(v.str(obj, path, "data_path", true)),
		Answer:        deref(v.str(obj, path, "answer", true)),
		Description:   deref(v.str(obj, path, "description", true)),
		Task:          v.str(obj, path, "task", false),
		ReachedCutoff: v.boolean(obj, path, "reached_cutoff", false),
	}
	if b := v.boolean(obj, path, "is_regression", true); b != nil {
		t.IsRegression = *b
	}
	if mr, ok := v.member(obj, path, "metrics", true); ok {
		if m := v.metrics(mr, join(path, "metrics")); m != nil {
			t.Metrics = *m
		}
	}
	if cats, ok := v.strings(obj, path, "category", true); ok {
		t.Category = cats
	}
	return t
}

func (v *validator) suiteTest(r gjson.Result, path string) *types.SuiteTest {
	obj, ok := v.object(r, path)
	if !ok {
		return nil
	}
	s := &types.SuiteTest{
		DataPath:      deref(v.str(obj, path, "data_path", true)),
		Task:          v.str(obj, path, "task", false),
		ReachedCutoff: v.boolean(obj, path, "reached_cutoff", false),
	}
	if mr, ok := v.member(obj, path, "metrics", true); ok {
		if m := v.metricsOverall(mr, join(path, "metrics")); m != nil {
			s.Metrics = *m
		}
	}
	if cats, ok := v.strings(obj, path, "category", false); ok {
		s.Category = cats
	}
	if tr, ok := v.member(obj, path, "tests", true); ok {
		testsPath := join(path, "tests")
		sub, ok := v.object(tr, testsPath)
		if ok {
			s.Tests = make([]types.NamedTest, 0, len(sub.keys))
			for _, name := range sub.keys {
				t := v.singleTest(sub.fields[name], join(testsPath, name))
				if t != nil {
					s.Tests = append(s.Tests, types.NamedTest{Name: name, Test: *t})
				}
			}
		}
	}
	return s
}

func (v *validator) config(r gjson.Result, path string) map[string]types.ConfigValue {
	obj, ok := v.object(r, path)
	if !ok {
		return nil
	}
	out := make(map[string]types.ConfigValue, len(obj.keys))
	for _, key := range obj.keys {
		val := obj.fields[key]
		p := join(path, key)
		switch {
		case val.Type == gjson.String:
			s := val.String()
			out[key] = types.ConfigValue{String: &s}
		case val.IsObject():
			nested, ok := v.object(val, p)
			if !ok {
				continue
			}
			m := make(map[string]string, len(nested.keys))
			for _, nk := range nested.keys {
				nv := nested.fields[nk]
				if nv.Type != gjson.String {
					v.fail(join(p, nk), "expected string, got %s", kindOf(nv))
					continue
				}
				m[nk] = nv.String()
			}
			out[key] = types.ConfigValue{Map: m}
		default:
			v.fail(p, "expected string or object of strings, got %s", kindOf(val))
		}
	}
	return out
}

func kindOf(r gjson.Result) string {
	switch {
	case !r.Exists():
		return "nothing"
	case r.IsObject():
		return "object"
	case r.IsArray():
		return "array"
	}
	switch r.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	default:
		return r.Type.String()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
