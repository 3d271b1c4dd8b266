// Package report runs the whole aggregation: discover reports, flatten them,
// cache the raw rows, normalize start times, and save the final table.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/codalotl/benchtable/internal/flatten"
	"github.com/codalotl/benchtable/internal/loader"
	"github.com/codalotl/benchtable/internal/output"
	"github.com/codalotl/benchtable/internal/table"
	"github.com/codalotl/benchtable/internal/types"
)

const (
	DefaultRawCache = "raw_reports.json"
	DefaultOutput   = "df.csv"
)

type Options struct {
	// ReportsDir is the reports root. Empty means loader.ReportsDir of the working directory.
	ReportsDir   string
	RawCachePath string
	OutputPath   string
	Policy       table.CachePolicy
	Agents       []string
	SkipMock     bool
	Printer      *output.Printer
	Logger       *slog.Logger
}

type Result struct {
	Table *table.Table
	// Reports is the number of report files scanned; zero when the raw cache was used.
	Reports int
	// Dropped counts rows removed because their start time could not be parsed.
	Dropped   int
	FromCache bool
	// OutputPath is where the final table was written.
	OutputPath string
}

func Run(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	printer := opts.Printer
	if printer == nil {
		printer = output.NewPrinter(nil)
	}
	reportsDir := strings.TrimSpace(opts.ReportsDir)
	if reportsDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		reportsDir = loader.ReportsDir(cwd)
	}
	outputPath := opts.OutputPath
	if strings.TrimSpace(outputPath) == "" {
		return nil, errors.New("output path is required")
	}

	store := table.Store{
		RawPath:    opts.RawCachePath,
		OutputPath: outputPath,
		Policy:     opts.Policy,
	}

	scanned := 0
	raw, fromCache, err := store.LoadRaw(func() ([]types.FlatRow, error) {
		var rows []types.FlatRow
		err := loader.Walk(loader.Options{
			Root:     reportsDir,
			Agents:   opts.Agents,
			SkipMock: opts.SkipMock,
			Logger:   logger,
		}, func(f loader.File) error {
			if err := printer.Appf("Processing %s", f.Path); err != nil {
				return err
			}
			flat, err := flatten.Report(f.Agent, f.Report)
			if err != nil {
				return fmt.Errorf("flatten %s: %w", f.Path, err)
			}
			logger.Debug("flattened report", slog.String("path", f.Path), slog.Int("rows", len(flat)))
			rows = append(rows, flat...)
			scanned++
			return nil
		})
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		logger.Info("loaded raw rows from cache", slog.String("path", opts.RawCachePath), slog.Int("rows", len(raw)))
	}

	tbl, dropped := table.Normalize(raw, logger)
	if dropped > 0 {
		logger.Warn("dropped rows with unparsable benchmark_start_time", slog.Int("dropped", dropped))
	}
	if err := store.Save(tbl); err != nil {
		return nil, err
	}

	return &Result{
		Table:      tbl,
		Reports:    scanned,
		Dropped:    dropped,
		FromCache:  fromCache,
		OutputPath: outputPath,
	}, nil
}
