package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/recon"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Build the initial index for a directory tree",
	Long: `Init walks the tree, hashes every file, and writes the index files at
the root. It refuses to run when an index already exists; use "intact
update" or "intact audit --update" to refresh one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}
	if index.Exists(root) {
		return fmt.Errorf("%w in %s", index.ErrIndexExists, root)
	}

	matcher, err := loadMatcher(root)
	if err != nil {
		return err
	}

	prog := newProgressLine(progressEnabled())
	res, err := reconcile(cmd.Context(), root, matcher, index.New(), recon.ModeAudit, prog)
	prog.Done()
	if err != nil {
		return err
	}

	if err := index.Save(root, res.index); err != nil {
		return err
	}

	// Everything is new on the first run; report totals, not a change
	// list.
	report := buildReport(root, "init", res, true)
	report.Added = nil
	if err := render(report); err != nil {
		return err
	}

	if len(res.warnings) > 0 {
		return exitWithCode(exitFatal)
	}
	return nil
}
