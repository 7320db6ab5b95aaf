package main

import (
	"github.com/spf13/cobra"

	"github.com/intact-tools/intact/pkg/intact/recon"
)

var auditUpdate bool

var auditCmd = &cobra.Command{
	Use:   "audit [path]",
	Short: "Verify every file against the index",
	Long: `Audit re-hashes every file in the tree and classifies each path against
the stored index. Because no hash is ever skipped, a file whose content
changed while its modification time did not is reported as bitrot.

The index is left untouched unless --update is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVarP(&auditUpdate, "update", "u", false, "persist the new index after the audit")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	return runReconcileCmd(cmd, args, recon.ModeAudit, "audit", auditUpdate)
}
