package cmd

import (
	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/mj1618/wm-win-tool/internal/output"
	"github.com/spf13/cobra"
)

var winlistCmd = &cobra.Command{
	Use:     "winlist [max]",
	Aliases: []string{"curlist"},
	Short:   "List the selected live windows",
	Long:    "List the live windows passing the selection with their match key, desktop, geometry and shaded state.",
	Args:    maxArgs(1),
	RunE:    runWinlist,
}

var storelistCmd = &cobra.Command{
	Use:     "storelist [max]",
	Aliases: []string{"list"},
	Short:   "List stored sessions, newest first",
	Args:    maxArgs(1),
	RunE:    runStorelist,
}

func init() {
	addCommand(winlistCmd)
	addCommand(storelistCmd)
}

func runWinlist(cmd *cobra.Command, args []string) error {
	limit, err := parseMax(args)
	if err != nil {
		return err
	}
	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	windows, err := svc.CurrentWindows(cmd.Context(), currentSelection(), limit)
	if err != nil {
		return err
	}
	return output.Print(windows)
}

func runStorelist(cmd *cobra.Command, args []string) error {
	limit, err := parseMax(args)
	if err != nil {
		return err
	}
	store, err := newStore()
	if err != nil {
		return err
	}
	metas, err := store.List(limit)
	if err != nil {
		return err
	}
	if metas == nil {
		metas = []model.SessionMeta{}
	}
	return output.Print(metas)
}
