package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Provider bundles the window source and sink of one backend.
type Provider struct {
	Source WindowSource
	Sink   WindowSink
	// Closer releases backend resources such as an X connection. May be nil.
	Closer func() error
}

// Close releases the backend.
func (p *Provider) Close() error {
	if p.Closer == nil {
		return nil
	}
	return p.Closer()
}

// Options configures a backend.
type Options struct {
	Wmctrl string
	Xprop  string
	Logger *zap.Logger
}

// ProviderFunc creates a Provider. Backend packages register one via init().
type ProviderFunc func(opts Options) (*Provider, error)

// ErrUnknownBackend is returned for a backend name nobody registered.
var ErrUnknownBackend = errors.New("unknown window backend")

var providers = map[string]ProviderFunc{}

// Register makes a backend available under name.
// See internal/platform/wmctrl and internal/platform/ewmh.
func Register(name string, fn ProviderFunc) {
	providers[name] = fn
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider returns the Provider for the named backend.
func NewProvider(name string, opts Options) (*Provider, error) {
	fn, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return fn(opts)
}
