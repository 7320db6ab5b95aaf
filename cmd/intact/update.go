package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intact-tools/intact/pkg/intact/index"
	"github.com/intact-tools/intact/pkg/intact/recon"
)

var updateDryRun bool

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Refresh the index incrementally",
	Long: `Update reconciles the tree against the stored index and persists the
result. Files whose size and modification time are unchanged keep their
stored digest without being re-read, so repeated runs are cheap. Bitrot
can still surface for files that were re-hashed for other reasons, but
only "intact audit" guarantees full coverage.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "report changes without writing the index")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	return runReconcileCmd(cmd, args, recon.ModeUpdate, "update", !updateDryRun)
}

// runReconcileCmd is the shared driver for update and audit.
func runReconcileCmd(cmd *cobra.Command, args []string, mode recon.Mode, modeName string, persist bool) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	matcher, err := loadMatcher(root)
	if err != nil {
		return err
	}

	prior, err := index.Load(root, matcher)
	if err != nil {
		if errors.Is(err, index.ErrNoIndex) {
			return fmt.Errorf("no index in %s; run \"intact init\" first", root)
		}
		return err
	}

	prog := newProgressLine(progressEnabled())
	res, err := reconcile(cmd.Context(), root, matcher, prior, mode, prog)
	prog.Done()
	if err != nil {
		return err
	}

	if persist {
		if err := index.Save(root, res.index); err != nil {
			return err
		}
	}

	if err := render(buildReport(root, modeName, res, persist)); err != nil {
		return err
	}

	return exitWithCode(exitCode(res))
}
