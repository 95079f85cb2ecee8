// Package session persists window layouts and replays them onto live
// windows.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mj1618/wm-win-tool/internal/model"
	"go.uber.org/zap"
)

const (
	fileExt  = ".json"
	lockName = ".lock"
	// formatVersion is written into every session file.
	formatVersion = 1
)

// record is the on-disk form of a window. Live-only fields are dropped.
type record struct {
	Class    string         `json:"class"`
	Title    string         `json:"title"`
	MatchKey string         `json:"match_key"`
	Desktop  int            `json:"desktop"`
	Geometry model.Geometry `json:"geometry"`
	Shaded   bool           `json:"shaded"`
}

func toRecord(w model.Window) record {
	return record{
		Class:    w.Class,
		Title:    w.Title,
		MatchKey: w.MatchKey,
		Desktop:  w.Desktop,
		Geometry: w.Geometry,
		Shaded:   w.Shaded,
	}
}

func (r record) window() model.Window {
	return model.Window{
		Class:    r.Class,
		Title:    r.Title,
		MatchKey: r.MatchKey,
		Desktop:  r.Desktop,
		Geometry: r.Geometry,
		Shaded:   r.Shaded,
	}
}

type sessionFile struct {
	Version   int      `json:"version"`
	Timestamp string   `json:"timestamp"`
	Windows   []record `json:"windows"`
}

// Store keeps sessions as one JSON file per timestamp in a directory.
// Sessions are only ever added; each file is renamed into place complete.
type Store struct {
	dir string
	now func() time.Time
	log *zap.Logger
}

// NewStore returns a Store rooted at dir. The directory is created on the
// first write.
func NewStore(dir string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{dir: dir, now: time.Now, log: log}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(ts string) string {
	return filepath.Join(s.dir, ts+fileExt)
}

// Lock takes an exclusive lock on the store, shared with other processes.
// Call the returned function to release it.
func (s *Store) Lock() (func(), error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.dir, lockName), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock session dir: %w", err)
	}
	return func() {
		if err := unlockFile(f); err != nil {
			s.log.Warn("unlock session dir", zap.Error(err))
		}
		f.Close()
	}, nil
}

// timestamps returns the stored session timestamps, newest first.
func (s *Store) timestamps() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var res []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ts := strings.TrimSuffix(name, fileExt)
		if _, err := model.ParseTimestamp(ts); err != nil {
			continue
		}
		res = append(res, ts)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(res)))
	return res, nil
}

// List returns up to max sessions (all for max <= 0), newest first. Only
// the returned sessions are read to count their windows.
func (s *Store) List(max int) ([]model.SessionMeta, error) {
	all, err := s.timestamps()
	if err != nil {
		return nil, err
	}
	if max > 0 && len(all) > max {
		all = all[:max]
	}
	metas := make([]model.SessionMeta, 0, len(all))
	for _, ts := range all {
		sess, err := s.loadLenient(ts)
		if err != nil {
			return nil, err
		}
		metas = append(metas, model.SessionMeta{Timestamp: ts, Windows: len(sess.Windows)})
	}
	return metas, nil
}

// Latest returns the newest session, or nil if none is stored.
func (s *Store) Latest() (*model.Session, error) {
	all, err := s.timestamps()
	if err != nil || len(all) == 0 {
		return nil, err
	}
	sess, err := s.loadLenient(all[0])
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// loadLenient is Load, except that a corrupt file is logged and read as a
// session without windows.
func (s *Store) loadLenient(ts string) (model.Session, error) {
	sess, err := s.Load(ts)
	if errors.Is(err, ErrCorrupt) {
		s.log.Warn("skip corrupt session", zap.String("timestamp", ts), zap.Error(err))
		return model.Session{Timestamp: ts}, nil
	}
	return sess, err
}

// Resolve finds the session named by ref. An empty ref means -1. A negative
// integer -N selects the N-th newest session and 0 the oldest one; anything
// else must equal a stored timestamp, optionally with the file extension.
func (s *Store) Resolve(ref string) (model.Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = "-1"
	}
	all, err := s.timestamps()
	if err != nil {
		return model.Session{}, err
	}

	if n, err := strconv.Atoi(ref); err == nil && n <= 0 {
		// all is newest first, so 0 counts from the other end
		idx := len(all) - 1
		if n < 0 {
			idx = -n - 1
		}
		if idx < 0 || idx >= len(all) {
			return model.Session{}, &NotFoundError{Ref: ref, Stored: len(all)}
		}
		return s.Load(all[idx])
	}

	ts := strings.TrimSuffix(ref, fileExt)
	for _, t := range all {
		if t == ts {
			return s.Load(t)
		}
	}
	return model.Session{}, &NotFoundError{Ref: ref, Stored: len(all)}
}

// Load reads the session with the exact timestamp ts.
func (s *Store) Load(ts string) (model.Session, error) {
	data, err := os.ReadFile(s.path(ts))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Session{}, &NotFoundError{Ref: ts, Stored: -1}
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return model.Session{}, fmt.Errorf("%w %s: %v", ErrCorrupt, ts, err)
	}
	sess := model.Session{Timestamp: ts, Windows: make([]model.Window, 0, len(f.Windows))}
	for _, r := range f.Windows {
		sess.Windows = append(sess.Windows, r.window())
	}
	return sess, nil
}

// Append writes windows as a new session stamped with the current time, or
// the next free second if that timestamp is taken, and returns it as it
// would be loaded back.
func (s *Store) Append(windows []model.Window) (model.Session, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return model.Session{}, fmt.Errorf("create session dir: %w", err)
	}
	ts, err := s.freeTimestamp()
	if err != nil {
		return model.Session{}, err
	}

	f := sessionFile{Version: formatVersion, Timestamp: ts, Windows: make([]record, 0, len(windows))}
	sess := model.Session{Timestamp: ts, Windows: make([]model.Window, 0, len(windows))}
	for _, w := range windows {
		r := toRecord(w)
		f.Windows = append(f.Windows, r)
		sess.Windows = append(sess.Windows, r.window())
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return model.Session{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := writeFileAtomic(s.path(ts), data); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

func (s *Store) freeTimestamp() (string, error) {
	t := s.now()
	for {
		ts := model.FormatTimestamp(t)
		_, err := os.Stat(s.path(ts))
		if errors.Is(err, fs.ErrNotExist) {
			return ts, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat session: %w", err)
		}
		t = t.Add(time.Second)
	}
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}
