package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/stage-planner/internal/service"
)

func newMinimumCommand(g *globalOptions) *cobra.Command {
	var (
		file     string
		turnover int
	)
	cmd := &cobra.Command{
		Use:   "minimum",
		Short: "Print the lower bound on the number of stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.planConfig()
			if err != nil {
				return err
			}
			l, err := readLineup(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			t := cfg.DefaultTurnover
			switch {
			case cmd.Flags().Changed("turnover"):
				t = turnover
			case l.Turnover != nil:
				t = *l.Turnover
			}
			n, err := service.NewPlanner(nil, nil, nil, cfg, nil, g.logger(cmd)).Minimum(l.Shows, t)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Lineup file; - reads text from stdin")
	cmd.Flags().IntVarP(&turnover, "turnover", "t", 0, "Slots reserved after each show")
	return cmd
}
