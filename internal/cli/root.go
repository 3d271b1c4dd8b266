package cli

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codalotl/benchtable/internal/config"
	"github.com/codalotl/benchtable/internal/flatten"
	"github.com/codalotl/benchtable/internal/loader"
	"github.com/codalotl/benchtable/internal/table"
)

// Execute runs the CLI.
func Execute() error {
	root := newRootCmd()
	executed, err := root.ExecuteC()
	if err != nil {
		maybePrintUsage(executed, root, err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	root := silenceUsageAndErrors(&cobra.Command{
		Use:   "benchtable",
		Short: "Aggregate benchmark report.json files into one flat table.",
	})
	root.PersistentFlags().String("config", "", "config file (default: benchtable.yaml in the working directory)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log diagnostics to stderr")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newInfoCmd())
	root.AddCommand(newExportCmd())
	return root
}

// loadConfig resolves the layered config for cmd and builds the diagnostics logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	if cfg.File != "" {
		logger.Debug("loaded config", slog.String("path", cfg.File))
	}
	return cfg, logger, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newValidateCmd() *cobra.Command {
	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "validate <report.json>",
		Short: "Validate one report file and show how it flattens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			rep, err := loader.Read(path)
			if err != nil {
				return err
			}
			// reports/<agent>/<run>/report.json
			agent := filepath.Base(filepath.Dir(filepath.Dir(filepath.Clean(path))))
			rows, err := flatten.Report(agent, rep)
			if err != nil {
				return err
			}
			formatted, err := yaml.Marshal(rep)
			if err != nil {
				return fmt.Errorf("format report: %w", err)
			}
			out := cmd.OutOrStdout()
			if _, err := out.Write(formatted); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "%d rows\n", len(rows)); err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, "valid")
			return err
		},
	})
	return cmd
}

func newInfoCmd() *cobra.Command {
	var tablePath string
	cmd := silenceUsageAndErrors(&cobra.Command{
		Use:   "info",
		Short: "Summarize a previously built table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
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
			return t.WriteInfo(cmd.OutOrStdout())
		},
	})
	cmd.Flags().StringVar(&tablePath, "table", "", "table CSV to read (default: configured output)")
	return cmd
}

func silenceUsageAndErrors(cmd *cobra.Command) *cobra.Command {
	silenceErrors(cmd)
	cmd.SilenceUsage = true
	return cmd
}

func silenceErrors(cmd *cobra.Command) *cobra.Command {
	cmd.SilenceErrors = true
	return cmd
}

func maybePrintUsage(cmd, root *cobra.Command, err error) {
	if err == nil {
		return
	}
	target := cmd
	if target == nil {
		target = root
	}
	if target == nil {
		return
	}
	if shouldShowUsage(err) {
		_ = target.Usage()
	}
}

func shouldShowUsage(err error) bool {
	msg := strings.ToLower(err.Error())
	if strings.HasPrefix(msg, "unknown command") {
		return true
	}
	if strings.HasPrefix(msg, "unknown flag") || strings.HasPrefix(msg, "unknown shorthand flag") {
		return true
	}
	if strings.Contains(msg, "accepts") && strings.Contains(msg, "arg") {
		return true
	}
	if strings.Contains(msg, "requires at least") && strings.Contains(msg, "arg") {
		return true
	}
	if strings.Contains(msg, "requires at most") && strings.Contains(msg, "arg") {
		return true
	}
	if strings.Contains(msg, "required flag") {
		return true
	}
	if strings.Contains(msg, "flags in the group") {
		return true
	}
	if strings.Contains(msg, "flag needs an argument") {
		return true
	}
	if strings.HasPrefix(msg, "invalid argument") {
		return true
	}
	return false
}
