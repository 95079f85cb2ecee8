package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mj1618/wm-win-tool/internal/output"
	"github.com/mj1618/wm-win-tool/internal/version"
	"github.com/spf13/cobra"
)

// flags holds the persistent flags shared by all commands.
var flags struct {
	verbose int
	force   bool
	bracket bool
	regexp  bool
	classes []string
	titles  []string
	format  string
	pretty  bool
	backend string
	dataDir string
}

var rootCmd = &cobra.Command{
	Use:   "wm-win-tool",
	Short: "Store and restore X11 window layouts",
	Long: `Store the desktop, geometry and shaded state of selected windows as a
timestamped session and restore them later.

Windows are selected with --class and --title wildcards (or regular
expressions with --regexp). With --bracket only windows whose title carries
a [tag] take part, and they are matched by that tag.

Invoked through a link whose name ends in "store" or "restore", the command
runs that operation with --bracket and one --verbose implied.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var versionString = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)

// addCommand registers a subcommand. Commands carry the version so -V works
// after any of them.
func addCommand(c *cobra.Command) {
	c.Version = versionString
	rootCmd.AddCommand(c)
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.Version = versionString
	rootCmd.SetVersionTemplate(rootCmd.Use + " version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	// cobra keeps a user defined "version" flag, so -v stays free for --verbose.
	pf.BoolP("version", "V", false, "Print version and exit")
	pf.CountVarP(&flags.verbose, "verbose", "v", "Increase verbosity (repeatable)")
	pf.BoolVarP(&flags.force, "force", "f", false, "Store even if the layout is unchanged")
	pf.BoolVarP(&flags.bracket, "bracket", "b", false, "Select and match windows by the [tag] in their title")
	pf.BoolVarP(&flags.regexp, "regexp", "r", false, "Treat patterns as regular expressions anchored at the start")
	pf.StringArrayVarP(&flags.classes, "class", "c", nil, "Window class pattern (repeatable)")
	pf.StringArrayVarP(&flags.titles, "title", "t", nil, "Window title pattern (repeatable)")
	pf.StringVar(&flags.format, "format", "", "Output format: yaml or json")
	pf.BoolVar(&flags.pretty, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&flags.backend, "backend", "", "Window backend: wmctrl or ewmh (env WM_WIN_TOOL_BACKEND)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Session directory (env WM_WIN_TOOL_DATA_DIR)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(flags.format)
		if err != nil {
			return &usageError{err: err}
		}
		output.OutputFormat = format
		output.PrettyOutput = flags.pretty
		return nil
	}
}

// runRoot handles an invocation without a command. Through a store or
// restore link it runs that command, otherwise it is a usage error.
func runRoot(cmd *cobra.Command, args []string) error {
	switch commandForInvocation(invocationName()) {
	case "restore":
		if err := applyInvocationDefaults(cmd); err != nil {
			return err
		}
		restoreCmd.SetContext(cmd.Context())
		return runRestore(restoreCmd, args)
	case "store":
		if err := applyInvocationDefaults(cmd); err != nil {
			return err
		}
		storeCmd.SetContext(cmd.Context())
		return runStore(storeCmd, args)
	}
	if len(args) == 0 {
		return &usageError{err: errors.New("missing command, check --help")}
	}
	return &usageError{err: fmt.Errorf("invalid command: %s, check --help", args[0])}
}
