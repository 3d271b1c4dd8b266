// Package loader discovers report files laid out as <root>/<agent>/<run>/report.json
// and validates each one.
package loader

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/codalotl/benchtable/internal/schema"
	"github.com/codalotl/benchtable/internal/types"
)

const (
	// DirName is the conventional name of the reports root.
	DirName = "reports"
	// FileName is the report file inside each run directory.
	FileName = "report.json"
)

type Options struct {
	Root string
	// Agents limits the walk to these agent directories (case-insensitive). Empty means all.
	Agents []string
	// SkipMock skips reports whose command was run with --mock.
	SkipMock bool
	Logger   *slog.Logger
}

// File is one validated report.
type File struct {
	Agent  string
	RunID  string
	Path   string
	Report *types.Report
}

// ReportsDir returns the reports root for a working directory: the directory
// itself when it is already named "reports", else its "reports" child.
func ReportsDir(cwd string) string {
	if filepath.Base(filepath.Clean(cwd)) == DirName {
		return cwd
	}
	return filepath.Join(cwd, DirName)
}

// Walk visits every report under opts.Root in agent then run name order. The
// first read, validation, or visit error stops the walk.
func Walk(opts Options, visit func(File) error) error {
	if strings.TrimSpace(opts.Root) == "" {
		return errors.New("reports root is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	agentSet := agentFilter(opts.Agents)

	agents, err := subdirs(opts.Root)
	if err != nil {
		return err
	}
	for _, agent := range agents {
		if agentSet != nil && !agentSet[strings.ToLower(agent)] {
			logger.Debug("skipping agent", slog.String("agent", agent))
			continue
		}
		agentDir := filepath.Join(opts.Root, agent)
		runs, err := subdirs(agentDir)
		if err != nil {
			return err
		}
		for _, run := range runs {
			path := filepath.Join(agentDir, run, FileName)
			if !isRegularFile(path) {
				logger.Debug("no report in run directory", slog.String("dir", filepath.Join(agentDir, run)))
				continue
			}
			rep, err := Read(path)
			if err != nil {
				return err
			}
			if opts.SkipMock && rep.IsMock() {
				logger.Debug("skipping mock run", slog.String("path", path))
				continue
			}
			if err := visit(File{Agent: agent, RunID: run, Path: path, Report: rep}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Read loads and validates one report file. Errors carry the file path.
func Read(path string) (*types.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rep, err := schema.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rep, nil
}

// subdirs lists the directory entries of dir by name, following symlinks.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func agentFilter(agents []string) map[string]bool {
	var out map[string]bool
	for _, a := range agents {
		val := strings.ToLower(strings.TrimSpace(a))
		if val == "" {
			continue
		}
		if out == nil {
			out = map[string]bool{}
		}
		out[val] = true
	}
	return out
}
