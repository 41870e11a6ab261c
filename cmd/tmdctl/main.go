// Command tmdctl estimates the second bending mode of a structure from
// accelerometer records and repositions a tuned mass damper to its peak.
//
// Usage:
//
//	tmdctl run     [flags]          live loop on the sensor serial port
//	tmdctl replay  [flags] <file>   offline analysis of a recorded sensor log
//	tmdctl shape   [flags]          print the mode-shape table
//	tmdctl history [flags]          print recent cycles from Redis
//	tmdctl ports                    list serial ports
//
// Examples:
//
//	tmdctl run --config bench.yaml
//	tmdctl run --sensor-port /dev/ttyUSB0 --actuator-port /dev/ttyACM0 --metrics-addr :9102
//	tmdctl replay --peak raw-argmax --plot-file mode.png capture.csv
//	tmdctl shape --points 11
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "tmdctl",
		Short: "Online mode-shape estimation and tuned-mass-damper control",
		Long: `tmdctl reads multi-point accelerometer records, finds the dominant
vibration frequency, fits the second bending mode of a cantilever to the
per-sensor amplitudes and moves a tuned mass damper to the fitted peak.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.bindPersistent(root)

	root.AddCommand(
		newRunCmd(opts),
		newReplayCmd(opts),
		newShapeCmd(opts),
		newHistoryCmd(opts),
		newPortsCmd(),
	)
	return root
}
