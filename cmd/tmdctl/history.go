package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/internal/serialport"
	"github.com/cwbudde/algo-modal/store"
)

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent cycles and the saved controller state from Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("no redis address configured (use --redis)")
			}
			rs, err := store.Connect(cmd.Context(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
				store.WithPrefix(cfg.Redis.Prefix))
			if err != nil {
				return err
			}
			defer rs.Close()

			out := cmd.OutOrStdout()
			if st, ok, err := rs.LoadState(cmd.Context()); err != nil {
				return err
			} else if ok {
				fmt.Fprintf(out, "damper at x=%.3f after %d steps\n\n", st.StartNorm, st.Steps)
			}

			recent, err := rs.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Cycle\tTime\tHz\tA\tBeta\tx_max\tDelta [deg]\tCommitted\n")
			for _, s := range recent {
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.4f\t%.4f\t%.3f\t%.2f\t%t\n",
					s.Cycle, s.Time.Format("15:04:05.000"), s.PeakHz, s.A, s.Beta, s.XMax, s.DeltaDeg, s.Committed)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of cycles")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address")
	return cmd
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := serialport.List()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
