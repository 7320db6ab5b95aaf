package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/output"
	"github.com/intact-tools/intact/pkg/intact/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Report live divergence from the index",
	Long: `Watch loads the index and then reports filesystem events that diverge
from it as they happen: added, removed, and changed paths. Events are
metadata-level observations, not hash verifications; run "intact audit"
for proof of integrity. Watch runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	matcher, err := loadMatcher(root)
	if err != nil {
		return err
	}

	idx, err := index.Load(root, matcher)
	if err != nil {
		if errors.Is(err, index.ErrNoIndex) {
			return fmt.Errorf("no index in %s; run \"intact init\" first", root)
		}
		return err
	}

	monitor, err := watch.New(root, idx, matcher, printWatchEvent)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !getQuiet() {
		fmt.Printf("watching %s (%d indexed files), Ctrl-C to stop\n", root, idx.Len())
	}
	return monitor.Run(ctx)
}

// printWatchEvent renders one divergence with the report symbols.
func printWatchEvent(e watch.Event) {
	symbol := output.SymbolUpdated
	switch e.Kind {
	case watch.KindAdded:
		symbol = output.SymbolAdded
	case watch.KindRemoved:
		symbol = output.SymbolRemoved
	}
	fmt.Printf("%s %s\n", symbol, e.Path)
}
