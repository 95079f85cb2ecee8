package session

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/mj1618/wm-win-tool/internal/platform"
	"go.uber.org/zap"
)

// StoreResult is the outcome of Service.Store.
type StoreResult struct {
	OK     bool   `yaml:"ok"     json:"ok"`
	Action string `yaml:"action" json:"action"`
	// Stored is false when the layout matched the latest session.
	Stored bool `yaml:"stored" json:"stored"`
	Forced bool `yaml:"forced,omitempty" json:"forced,omitempty"`
	// Timestamp names the new session, or the unchanged latest one.
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	Windows   int    `yaml:"windows"   json:"windows"`
}

// RestoreResult is the outcome of Service.Restore.
type RestoreResult struct {
	OK        bool   `yaml:"ok"        json:"ok"`
	Action    string `yaml:"action"    json:"action"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	DryRun    bool   `yaml:"dry_run,omitempty" json:"dry_run,omitempty"`
	// Matched counts live windows paired with a stored record, Updated those
	// that had at least one attribute changed, Missing the stored records
	// without a live window.
	Matched  int            `yaml:"matched"  json:"matched"`
	Updated  int            `yaml:"updated"  json:"updated"`
	Missing  int            `yaml:"missing"  json:"missing"`
	Changes  []model.Change `yaml:"changes,omitempty"  json:"changes,omitempty"`
	Failures []string       `yaml:"failures,omitempty" json:"failures,omitempty"`
}

// Service runs the store and restore flows against a window backend and a
// session store.
type Service struct {
	source platform.WindowSource
	sink   platform.WindowSink
	store  *Store
	log    *zap.Logger
}

// NewService wires a Service. sink may be nil for read-only use.
func NewService(source platform.WindowSource, sink platform.WindowSink, store *Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, sink: sink, store: store, log: log}
}

// selected lists the live windows and keeps those matching m.
func (s *Service) selected(ctx context.Context, m *model.Matcher) ([]model.Window, error) {
	s.log.Info("fetch window list")
	all, err := s.source.ListWindows(ctx)
	if err != nil {
		return nil, err
	}
	windows := m.Filter(all)
	s.log.Info("windows passed filter", zap.Int("selected", len(windows)), zap.Int("total", len(all)))
	return windows, nil
}

// CurrentWindows returns up to max (all for max <= 0) selected live windows.
func (s *Service) CurrentWindows(ctx context.Context, sel model.Selection, max int) ([]model.Window, error) {
	m, err := sel.Compile()
	if err != nil {
		return nil, err
	}
	windows, err := s.selected(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, ErrNoMatch
	}
	if max > 0 && len(windows) > max {
		windows = windows[:max]
	}
	return windows, nil
}

// Store snapshots the selected windows. Unless force is set, nothing is
// written when the layout equals the latest stored session.
func (s *Service) Store(ctx context.Context, sel model.Selection, force bool) (StoreResult, error) {
	m, err := sel.Compile()
	if err != nil {
		return StoreResult{}, err
	}
	windows, err := s.selected(ctx, m)
	if err != nil {
		return StoreResult{}, err
	}
	if len(windows) == 0 {
		return StoreResult{}, ErrNoMatch
	}

	unlock, err := s.store.Lock()
	if err != nil {
		return StoreResult{}, err
	}
	defer unlock()

	res := StoreResult{OK: true, Action: "store", Windows: len(windows)}

	prev, err := s.store.Latest()
	if err != nil {
		return StoreResult{}, err
	}
	if prev != nil && model.SameLayout(windows, prev.Windows) {
		if !force {
			s.log.Info("session unchanged, not stored", zap.String("latest", prev.Timestamp))
			res.Timestamp = prev.Timestamp
			return res, nil
		}
		s.log.Info("session unchanged, storing anyway", zap.String("latest", prev.Timestamp))
		res.Forced = true
	}

	for _, w := range windows {
		s.log.Debug("store window",
			zap.String("id", w.ID),
			zap.String("class", w.Class),
			zap.String("match_key", w.MatchKey),
			zap.Int("desktop", w.Desktop),
			zap.Stringer("geometry", w.Geometry),
			zap.Bool("shaded", w.Shaded),
		)
	}

	sess, err := s.store.Append(windows)
	if err != nil {
		return StoreResult{}, err
	}
	s.log.Info("session stored", zap.String("timestamp", sess.Timestamp), zap.Int("matches", len(sess.Windows)))
	res.Stored = true
	res.Timestamp = sess.Timestamp
	return res, nil
}

// Restore applies the session named by ref to the selected live windows.
// Per window it changes desktop, geometry and shaded state, in that order,
// and only where they differ. A failing change does not stop the others: the
// result is returned together with a *multierror.Error of
// *platform.ApplyError. With dryRun the changes are reported but not made.
func (s *Service) Restore(ctx context.Context, sel model.Selection, ref string, dryRun bool) (RestoreResult, error) {
	m, err := sel.Compile()
	if err != nil {
		return RestoreResult{}, err
	}
	sess, err := s.store.Resolve(ref)
	if err != nil {
		return RestoreResult{}, err
	}
	s.log.Info("restore", zap.String("timestamp", sess.Timestamp))

	live, err := s.selected(ctx, m)
	if err != nil {
		return RestoreResult{}, err
	}

	pairs := model.PairByMatchKey(live, sess.Windows)
	res := RestoreResult{
		OK:        true,
		Action:    "restore",
		Timestamp: sess.Timestamp,
		DryRun:    dryRun,
		Matched:   len(pairs),
		Missing:   len(sess.Windows) - len(pairs),
	}

	var errs *multierror.Error
	for _, p := range pairs {
		changes := model.DiffLayout(p.Live, p.Stored)
		if len(changes) == 0 {
			s.log.Debug("window already in place", zap.String("match_key", p.Live.MatchKey))
			continue
		}
		updated := false
		for _, c := range changes {
			s.log.Info("adjust window",
				zap.String("match_key", c.MatchKey),
				zap.String("attribute", string(c.Attribute)),
				zap.String("from", c.From),
				zap.String("to", c.To),
			)
			if !dryRun {
				if err := s.apply(ctx, p.Live.ID, c.Attribute, p.Stored); err != nil {
					aerr := &platform.ApplyError{WindowID: c.WindowID, MatchKey: c.MatchKey, Attribute: c.Attribute, Err: err}
					s.log.Warn("adjust window failed", zap.Error(aerr))
					errs = multierror.Append(errs, aerr)
					res.Failures = append(res.Failures, aerr.Error())
					continue
				}
			}
			res.Changes = append(res.Changes, c)
			updated = true
		}
		if updated {
			res.Updated++
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		res.OK = false
		return res, err
	}
	return res, nil
}

func (s *Service) apply(ctx context.Context, id string, attr model.Attribute, stored model.Window) error {
	switch attr {
	case model.AttrDesktop:
		return s.sink.MoveToDesktop(ctx, id, stored.Desktop)
	case model.AttrGeometry:
		return s.sink.SetGeometry(ctx, id, stored.Geometry)
	case model.AttrShaded:
		return s.sink.SetShaded(ctx, id, stored.Shaded)
	}
	return nil
}

// List returns up to max stored sessions, newest first.
func (s *Service) List(max int) ([]model.SessionMeta, error) {
	return s.store.List(max)
}
