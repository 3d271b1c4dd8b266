package cli

import (
	"bytes"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codalotl/benchtable/internal/config"
	"github.com/codalotl/benchtable/internal/output"
	"github.com/codalotl/benchtable/internal/report"
	"github.com/codalotl/benchtable/internal/table"
)

func newBuildCmd() *cobra.Command {
	var publish bool

	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "build",
		Short: "Scan reports and write the flattened table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			policy, err := table.ParseCachePolicy(cfg.CachePolicy)
			if err != nil {
				return err
			}
			printer := output.NewPrinter(cmd.OutOrStdout())

			res, err := report.Run(report.Options{
				ReportsDir:   cfg.ReportsDir,
				RawCachePath: cfg.RawCache,
				OutputPath:   cfg.Output,
				Policy:       policy,
				Agents:       cfg.Agents,
				SkipMock:     cfg.SkipMock,
				Printer:      printer,
				Logger:       logger,
			})
			if err != nil {
				return err
			}
			if res.FromCache {
				if err := printer.Notef("Loaded raw rows from %s", cfg.RawCache); err != nil {
					return err
				}
			}
			if res.Dropped > 0 {
				if err := printer.Notef("Dropped %d rows with an unparsable benchmark_start_time", res.Dropped); err != nil {
					return err
				}
			}

			var info bytes.Buffer
			if err := res.Table.WriteInfo(&info); err != nil {
				return err
			}
			if err := printer.Block(info.String()); err != nil {
				return err
			}
			if err := printer.Appf("Data saved to %s", res.OutputPath); err != nil {
				return err
			}
			if err := printer.Notef("Reload it with: benchtable info --table %s", shellQuote(res.OutputPath)); err != nil {
				return err
			}

			if publish {
				rootDir, err := os.Getwd()
				if err != nil {
					return err
				}
				summaryRel, err := publishReport(rootDir, res.Table, formatCommandForPublish(os.Args), time.Now())
				if err != nil {
					return err
				}
				return printer.Appf("Published %s", summaryRel)
			}
			return nil
		},
	})

	cmd.Flags().String("reports-dir", "", "reports root (default: ./reports, or . when already inside reports)")
	cmd.Flags().String("raw-cache", config.DefaultRawCache, "raw row cache path")
	cmd.Flags().String("output", config.DefaultOutput, "final table CSV path")
	cmd.Flags().String("cache-policy", config.DefaultCachePolicy, "load-if-present, force-refresh or always-recompute")
	cmd.Flags().String("agents", "", "comma-separated agent list (default: all)")
	cmd.Flags().Bool("skip-mock", false, "skip reports from runs started with --mock")
	cmd.Flags().BoolVar(&publish, "publish", false, "publish a summary to result_summaries and update README.md")

	return cmd
}
