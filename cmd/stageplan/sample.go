package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/iliyamo/stage-planner/internal/lineup"
)

func newSampleCommand(g *globalOptions) *cobra.Command {
	var (
		file   string
		seed   uint64
		format string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Fill in missing show priorities and print the lineup",
		Long: `sample draws a priority for every show that has none, from a normal
distribution centred in [PRIORITY_MIN, PRIORITY_MAX], and prints the
lineup back as YAML or text. Existing priorities are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.planConfig()
			if err != nil {
				return err
			}
			l, err := readLineup(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				seed = rand.Uint64()
			}
			s, err := lineup.NewSampler(cfg.PriorityMin, cfg.PriorityMax, rand.NewPCG(seed, 0x5a4d))
			if err != nil {
				return err
			}
			n := s.Fill(l.Shows)
			g.logger(cmd).Info("priorities sampled", "shows", len(l.Shows), "sampled", n, "seed", seed)

			switch format {
			case "yaml":
				return lineup.WriteYAML(cmd.OutOrStdout(), l)
			case "text":
				return lineup.WriteText(cmd.OutOrStdout(), l.Shows)
			}
			return fmt.Errorf("unknown format %q, want yaml or text", format)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Lineup file; - reads text from stdin")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Sampler seed")
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml or text")
	return cmd
}
