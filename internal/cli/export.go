package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/codalotl/benchtable/internal/export"
	"github.com/codalotl/benchtable/internal/output"
	"github.com/codalotl/benchtable/internal/table"
)

func newExportCmd() *cobra.Command {
	var tablePath string
	var sqlitePath string
	var postgresDSN string

	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "export (--sqlite <path> | --postgres <dsn>)",
		Short: "Copy a built table into SQLite or PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := tablePath
			if strings.TrimSpace(path) == "" {
				path = cfg.Output
			}
			t, err := table.LoadTable(path)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var sum *export.Summary
			var target string
			if sqlitePath != "" {
				target = sqlitePath
				sum, err = export.SQLite(ctx, sqlitePath, t, logger)
			} else {
				target = "postgres"
				sum, err = export.Postgres(ctx, postgresDSN, t, logger)
			}
			if err != nil {
				return err
			}
			printer := output.NewPrinter(cmd.OutOrStdout())
			return printer.Appf("Exported %d rows to %s (export %s)", sum.Rows, target, sum.ID)
		},
	})
	cmd.Flags().StringVar(&tablePath, "table", "", "table CSV to read (default: configured output)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file")
	cmd.Flags().StringVar(&postgresDSN, "postgres", "", "PostgreSQL connection string")
	cmd.MarkFlagsMutuallyExclusive("sqlite", "postgres")
	cmd.MarkFlagsOneRequired("sqlite", "postgres")
	return cmd
}
