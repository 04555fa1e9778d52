package main

import (
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"hmcos/internal/graph"
	"hmcos/internal/hier"
	"hmcos/internal/sched"
	"hmcos/internal/viz"
)

var (
	vizTraitsPath string
	vizPNGPath    string
)

var vizCmd = &cobra.Command{
	Use:   "viz <graph.json> <out.dot>",
	Short: "Schedule a graph and render it as a labeled DOT graph",
	Args:  cobra.ExactArgs(2),
	RunE:  runViz,
}

func init() {
	vizCmd.Flags().StringVar(&vizTraitsPath, "traits", "", "optional YAML sidecar of per-operator-type overlap hints")
	vizCmd.Flags().StringVar(&vizPNGPath, "png", "", "also render a PNG to this path (requires graphviz's dot)")
}

func runViz(cmd *cobra.Command, args []string) error {
	g, err := graph.Load(args[0])
	if err != nil {
		return err
	}

	traits := graph.NewTraitRegistry()
	if vizTraitsPath != "" {
		if err := graph.LoadTraitOverrides(vizTraitsPath, traits); err != nil {
			return err
		}
	}

	h := hier.Build(g)
	result := sched.NewHierScheduler(g, h, traits).Run()

	klog.Infof("rendering %d scheduled ops to %s", len(result.Ops), args[1])
	return viz.PlotSchedule(result.Ops, args[1], vizPNGPath)
}
