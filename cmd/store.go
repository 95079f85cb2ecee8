package cmd

import (
	"github.com/mj1618/wm-win-tool/internal/output"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Store the layout of the selected windows",
	Long: `Snapshot desktop, geometry and shaded state of the selected windows as a
new session. Nothing is written when the layout equals the latest session,
unless --force is given.`,
	Args: maxArgs(0),
	RunE: runStore,
}

func init() {
	addCommand(storeCmd)
}

func runStore(cmd *cobra.Command, args []string) error {
	if err := maxArgs(0)(cmd, args); err != nil {
		return err
	}
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := svc.Store(cmd.Context(), currentSelection(), flags.force)
	if err != nil {
		return err
	}
	return output.Print(res)
}
