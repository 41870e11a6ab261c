package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/pipeline"
)

func newReplayCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Analyse a recorded sensor log",
		Long: `replay feeds a recorded sensor log through the same cycle as the live
loop. Cycles are gated on the sample clock (frames / sample rate) so the
recording is analysed as it was captured. Commands go to stdout unless
--actuator says otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("actuator") {
				if err := cmd.Flags().Set("actuator", "stdout"); err != nil {
					return err
				}
			}
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			svc, err := buildServices(cmd.Context(), cfg, cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			ropts := append(svc.opts, pipeline.WithSampleClock(time.Unix(0, 0).UTC(), cfg.Analysis.SampleRate))
			r, err := pipeline.NewRunner(f, p, cfg.Sensors, svc.dispatcher, ropts...)
			if err != nil {
				return err
			}
			if err := r.Run(cmd.Context()); err != nil {
				return err
			}
			logger.Info("replay finished", "file", args[0], "cycles", r.Cycles(),
				"start_norm", fmt.Sprintf("%.3f", r.State().StartNorm))
			return nil
		},
	}
	opts.bindPipeline(cmd)
	return cmd
}
