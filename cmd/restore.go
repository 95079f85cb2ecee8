package cmd

import (
	"github.com/mj1618/wm-win-tool/internal/output"
	"github.com/spf13/cobra"
)

var restoreDryRun bool

var restoreCmd = &cobra.Command{
	Use:   "restore [timestamp|-N]",
	Short: "Restore the layout of a stored session",
	Long: `Move the selected live windows back to the desktop, geometry and shaded
state of a stored session. The argument is a session timestamp or -N for the
N-th newest session (default -1).`,
	Example: `  wm-win-tool restore
  wm-win-tool -b restore -2
  wm-win-tool -c 'Navigator*' restore 2026-10-19_09-30-00`,
	Args: maxArgs(1),
	RunE: runRestore,
}

func init() {
	addCommand(restoreCmd)
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false, "Report the changes without applying them")
}

func runRestore(cmd *cobra.Command, args []string) error {
	if err := maxArgs(1)(cmd, args); err != nil {
		return err
	}
	var ref string
	if len(args) == 1 {
		ref = args[0]
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Restore(cmd.Context(), currentSelection(), ref, restoreDryRun)
	if err != nil && res.Action == "" {
		return err
	}
	// a partial restore still reports what was changed
	if perr := output.Print(res); perr != nil && err == nil {
		return perr
	}
	return err
}
