// Command hmcosched loads a dataflow graph, runs the hierarchical
// memory-peak-minimizing scheduler over it, and reports the resulting
// schedule and peak.
package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var rootCmd = &cobra.Command{
	Use:   "hmcosched",
	Short: "Schedule a dataflow graph for minimal peak live-value size",
	Long: `hmcosched builds the two-level hierarchical view of a dataflow
graph (sequences and groups), runs the frontier-DP group scheduler and the
outer ungroup/reschedule refinement loop, and reports a topological order
that minimizes the peak sum of live value sizes.`,
}

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(vizCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
