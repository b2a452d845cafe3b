package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iliyamo/stage-planner/internal/config"
	"github.com/iliyamo/stage-planner/internal/lineup"
	"github.com/iliyamo/stage-planner/internal/logger"
)

type globalOptions struct {
	logLevel  string
	logFormat string
	envFile   string
}

func (o *globalOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.StringVar(&o.logFormat, "log-format", "text", "Log format (text or json)")
	fs.StringVar(&o.envFile, "env-file", ".env", "Optional .env file with PLAN_* defaults")
}

// logger writes to stderr so stdout carries only the report.
func (o *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWriter(cmd.ErrOrStderr(), o.logLevel, o.logFormat)
}

// planConfig loads the PLAN_* defaults, from the env file when present.
func (o *globalOptions) planConfig() (config.PlanConfig, error) {
	if o.envFile != "" {
		if _, err := os.Stat(o.envFile); err == nil {
			if err := config.LoadDotEnv(o.envFile); err != nil {
				return config.PlanConfig{}, fmt.Errorf("load %s: %w", o.envFile, err)
			}
		}
	}
	return config.LoadPlanConfig()
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "stageplan",
		Short: "Assign festival shows to the fewest stages",
		Long: `stageplan places every show of a lineup on a stage so that no two
shows on one stage overlap, keeping a turnover gap after each show, and
reports the number of stages used next to the theoretical minimum.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newAllocateCommand(opts),
		newMinimumCommand(opts),
		newSampleCommand(opts),
		newConsumeCommand(opts),
	)
	return cmd
}

// readLineup loads path, or the text format from stdin when path is "-".
func readLineup(path string, stdin io.Reader) (*lineup.Lineup, error) {
	if path == "-" {
		entries, err := lineup.ParseText(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return &lineup.Lineup{Name: "stdin", Shows: entries}, nil
	}
	return lineup.Load(path)
}
