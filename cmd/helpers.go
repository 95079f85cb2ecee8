package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mj1618/wm-win-tool/internal/config"
	"github.com/mj1618/wm-win-tool/internal/logging"
	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/mj1618/wm-win-tool/internal/platform"
	"github.com/mj1618/wm-win-tool/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitNoMatch = 3
	exitPartial = 4
)

// usageError marks errors caused by the command line.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var (
		uerr *usageError
		perr *model.PatternError
		eerr *platform.EnumerationError
		aerr *platform.ApplyError
	)
	switch {
	case errors.Is(err, session.ErrNoMatch):
		return exitNoMatch
	case errors.As(err, &aerr):
		return exitPartial
	case errors.As(err, &uerr), errors.As(err, &perr), errors.As(err, &eerr),
		errors.Is(err, session.ErrNotFound), errors.Is(err, platform.ErrUnknownBackend):
		return exitUsage
	}
	return exitFailure
}

// currentSelection builds the window selection from the persistent flags.
func currentSelection() model.Selection {
	return model.Selection{
		Classes: flags.classes,
		Titles:  flags.titles,
		Regexp:  flags.regexp,
		Bracket: flags.bracket,
	}
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	return cfg, nil
}

func newLogger() *zap.Logger {
	return logging.New(flags.verbose, os.Stderr)
}

// newService connects to the configured window backend. The returned
// function releases the backend.
func newService() (*session.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := newLogger()
	p, err := platform.NewProvider(cfg.Backend, platform.Options{
		Wmctrl: cfg.Wmctrl,
		Xprop:  cfg.Xprop,
		Logger: log,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debug("backend ready", zap.String("backend", cfg.Backend), zap.String("data_dir", cfg.DataDir))
	svc := session.NewService(p.Source, p.Sink, session.NewStore(cfg.DataDir, log), log)
	cleanup := func() {
		if err := p.Close(); err != nil {
			log.Warn("close backend", zap.Error(err))
		}
		_ = log.Sync()
	}
	return svc, cleanup, nil
}

// newStore opens the session store without touching the display.
func newStore() (*session.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.NewStore(cfg.DataDir, newLogger()), nil
}

// maxArgs is cobra.MaximumNArgs reporting a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// parseMax reads the optional list length argument. Zero or no argument
// means unlimited.
func parseMax(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 {
		return 0, &usageError{err: fmt.Errorf("invalid list max argument: %s", args[0])}
	}
	return n, nil
}

var negativeIndex = regexp.MustCompile(`^-\d+$`)

// valueFlags are the flags that consume the following argument.
var valueFlags = map[string]bool{
	"-c": true, "--class": true,
	"-t": true, "--title": true,
	"--format": true, "--backend": true, "--data-dir": true,
}

// valueShorthands are the shorthand letters that take a value.
const valueShorthands = "ct"

// normalizeArgs moves negative integers such as the "-2" of "restore -2"
// behind a "--" so they are parsed as positional arguments. Values of flags
// like "-t -2" are left alone.
func normalizeArgs(args []string) []string {
	var head, moved, tail []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			tail = args[i+1:]
			break
		}
		if negativeIndex.MatchString(a) {
			moved = append(moved, a)
			continue
		}
		head = append(head, a)
		if takesValue(a) && i+1 < len(args) {
			i++
			head = append(head, args[i])
		}
	}
	if len(moved) == 0 && tail == nil {
		return args
	}
	res := append(head, "--")
	res = append(res, moved...)
	return append(res, tail...)
}

func takesValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	if valueFlags[arg] {
		return true
	}
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}
	// in a cluster such as -vt the first value flag takes the rest of the
	// token, or the next argument when it comes last
	for j := 1; j < len(arg); j++ {
		if strings.IndexByte(valueShorthands, arg[j]) >= 0 {
			return j == len(arg)-1
		}
	}
	return false
}

// invocationName returns the name the program was started under.
var invocationName = func() string {
	return filepath.Base(os.Args[0])
}

// invocationCommands maps program name suffixes to commands. "restore" must
// be checked before "store".
var invocationCommands = []struct {
	suffix  string
	command string
}{
	{"restore", "restore"},
	{"store", "store"},
}

// commandForInvocation returns the command implied by the program name, or
// "" for the regular name.
func commandForInvocation(name string) string {
	for _, ic := range invocationCommands {
		if strings.HasSuffix(name, ic.suffix) {
			return ic.command
		}
	}
	return ""
}

// applyInvocationDefaults turns on --bracket, unless given explicitly, and
// adds one level of --verbose.
func applyInvocationDefaults(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	if !pf.Changed("bracket") {
		flags.bracket = true
	}
	return pf.Set("verbose", "+1")
}
