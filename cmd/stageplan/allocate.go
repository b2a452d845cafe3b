package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iliyamo/stage-planner/internal/report"
	"github.com/iliyamo/stage-planner/internal/service"
)

type allocateOptions struct {
	file      string
	policy    string
	turnover  int
	seed      uint64
	maxStages int
	report    string
	summary   bool
	timetable bool
	color     bool
}

func (o *allocateOptions) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.file, "file", "f", "-", "Lineup file (.yaml/.yml or text); - reads text from stdin")
	fs.StringVarP(&o.policy, "policy", "p", "", "Stage selection policy: dense, random or popularity (default from PLAN_DEFAULT_POLICY)")
	fs.IntVarP(&o.turnover, "turnover", "t", 0, "Slots reserved after each show (default from the lineup, then PLAN_DEFAULT_TURNOVER)")
	fs.Uint64Var(&o.seed, "seed", 0, "Seed for the random policy and priority sampling")
	fs.IntVar(&o.maxStages, "max-stages", 0, "Fail instead of opening more stages than this")
	fs.StringVar(&o.report, "report", "-", "Write one line per show to this file; - is stdout, empty disables")
	fs.BoolVar(&o.summary, "summary", true, "Print the run summary")
	fs.BoolVar(&o.timetable, "timetable", false, "Print the raw lineup, the processing order and the stage grid")
	fs.BoolVar(&o.color, "color", false, "Colour the timetable")
}

func newAllocateCommand(g *globalOptions) *cobra.Command {
	o := &allocateOptions{}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate a lineup onto stages",
		Example: `  stageplan allocate -f friday.yaml --policy popularity --seed 7
  printf '1 3\n2 4\n5 6\n' | stageplan allocate -t 1 --timetable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.planConfig()
			if err != nil {
				return err
			}
			l, err := readLineup(o.file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			req := service.RunRequest{Policy: o.policy, MaxStages: o.maxStages}
			if cmd.Flags().Changed("turnover") {
				req.Turnover = &o.turnover
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &o.seed
			}
			planner := service.NewPlanner(nil, nil, nil, cfg, nil, g.logger(cmd))
			run, err := planner.Execute(l.Shows, req, l.Turnover)
			if err != nil {
				return err
			}

			if o.report != "" && o.report != "-" {
				if err := writeReportFile(o.report, run); err != nil {
					return err
				}
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			if o.report == "-" {
				if err := report.WriteReport(w, run.Result.Assignments, run.Priorities); err != nil {
					return err
				}
			}
			if o.summary {
				if err := report.WriteSummary(w, run.Result); err != nil {
					return err
				}
				if run.Seed != nil {
					fmt.Fprintf(w, "seed=%d sampled=%d\n", *run.Seed, run.Sampled)
				}
			}
			if o.timetable {
				if o.report == "-" || o.summary {
					fmt.Fprintln(w)
				}
				if o.color {
					color.NoColor = false
				}
				if err := report.RenderResult(w, run.Entries.Shows(), run.Result, o.color); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}
	o.addFlags(cmd.Flags())
	return cmd
}

func writeReportFile(path string, run *service.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteReport(f, run.Result.Assignments, run.Priorities); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
