package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modal/internal/serialport"
	"github.com/cwbudde/algo-modal/pipeline"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live control loop on the sensor serial port",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := buildPipeline(cfg)
			if err != nil {
				return err
			}
			svc, err := buildServices(ctx, cfg, cmd.OutOrStdout(), logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			port, err := serialport.Open(serialport.Config{
				Name:        cfg.Sensor.Port,
				BaudRate:    cfg.Sensor.Baud,
				ReadTimeout: cfg.Sensor.ReadTimeout,
			})
			if err != nil {
				return err
			}
			defer port.Close()
			logger.Info("sensor port open", "port", cfg.Sensor.Port, "baud", cfg.Sensor.Baud)

			r, err := pipeline.NewRunner(port, p, cfg.Sensors, svc.dispatcher, svc.opts...)
			if err != nil {
				return err
			}
			serveMetrics(ctx, cfg.MetricsAddr, svc.metrics, logger)
			return r.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&opts.sensorPort, "sensor-port", "", "sensor serial port")
	opts.bindPipeline(cmd)
	return cmd
}
