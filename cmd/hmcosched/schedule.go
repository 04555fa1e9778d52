package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"hmcos/internal/graph"
	"hmcos/internal/hier"
	"hmcos/internal/lifetime"
	"hmcos/internal/sched"
	"hmcos/internal/viz"
)

var (
	scheduleTraitsPath string
	scheduleBaseline   bool
	scheduleVerbose    bool
	scheduleDotPath    string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <graph.json>",
	Short: "Run the hierarchical scheduler over a graph and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVar(&scheduleTraitsPath, "traits", "", "optional YAML sidecar of per-operator-type overlap hints")
	scheduleCmd.Flags().BoolVar(&scheduleBaseline, "baseline", false, "also report the plain whole-graph reverse-postorder peak")
	scheduleCmd.Flags().BoolVar(&scheduleVerbose, "verbose", false, "print the per-op memory-state table")
	scheduleCmd.Flags().StringVar(&scheduleDotPath, "dot", "", "write the scheduled graph as Graphviz DOT to this path")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	runID := uuid.New()
	klog.Infof("run %s: loading graph from %s", runID, args[0])

	g, err := graph.Load(args[0])
	if err != nil {
		return err
	}

	traits := graph.NewTraitRegistry()
	if scheduleTraitsPath != "" {
		if err := graph.LoadTraitOverrides(scheduleTraitsPath, traits); err != nil {
			return err
		}
	}

	h := hier.Build(g)
	hs := sched.NewHierScheduler(g, h, traits)
	result := hs.Run()

	stat := lifetime.Compute(result.Ops, g)
	peak, peakValues := stat.Peak()
	mean, variance := stat.Summary()

	klog.Infof("run %s: scheduled %d ops, peak=%d", runID, len(result.Ops), peak)

	fmt.Printf("scheduled %d ops\n", len(result.Ops))
	fmt.Printf("peak memory: %d (mean live size %.2f, variance %.2f)\n", peak, mean, variance)
	fmt.Printf("peak values:")
	for _, v := range peakValues {
		fmt.Printf(" %s", v.Name)
	}
	fmt.Println()

	if scheduleBaseline {
		baseline := sched.ReversePostOrder(g)
		baselinePeak := lifetime.EstimatePeak(baseline, g)
		fmt.Printf("baseline (plain RPO) peak: %d\n", baselinePeak)
	}

	if scheduleVerbose {
		fmt.Print(result.String())
	}

	if scheduleDotPath != "" {
		if err := viz.PlotSchedule(result.Ops, scheduleDotPath, ""); err != nil {
			klog.Warningf("run %s: could not write DOT file: %v", runID, err)
		}
	}

	return nil
}
