// Package repo opens a mygit repository. A Handle carries everything a
// command needs: the root, configuration, logger, version and branch
// stores, and the file lister. Commands call Open and pass the Handle on.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ankitiscracked/mygit/internal/branch"
	"github.com/ankitiscracked/mygit/internal/config"
	"github.com/ankitiscracked/mygit/internal/ignore"
	"github.com/ankitiscracked/mygit/internal/manifest"
	"github.com/ankitiscracked/mygit/internal/store"
)

// ErrNotRepository means no .mygit directory was found.
var ErrNotRepository = errors.New("not a mygit repository")

// Handle is an open repository.
type Handle struct {
	root     string
	ctrl     string
	cfg      *config.Config
	log      *zap.Logger
	versions *store.Store
	branches *branch.Store
	lister   *manifest.Lister
}

type options struct {
	log *zap.Logger
	ids store.IDGenerator
	cfg *config.Config
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithIDGenerator sets how new version ids are allocated.
func WithIDGenerator(g store.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithConfig skips reading config.toml and uses cfg instead.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// Find walks up from start to the directory holding .mygit.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ignore.ControlDir)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w (or any of the parent directories): %s", ErrNotRepository, start)
		}
		dir = parent
	}
}

// Open finds the repository containing start and opens it.
func Open(start string, opts ...Option) (*Handle, error) {
	root, err := Find(start)
	if err != nil {
		return nil, err
	}
	return OpenAt(root, opts...)
}

// OpenAt opens the repository rooted at root.
func OpenAt(root string, opts ...Option) (*Handle, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	ctrl := filepath.Join(root, ignore.ControlDir)
	if info, err := os.Stat(ctrl); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, root)
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.Load(ctrl); err != nil {
			return nil, err
		}
	}

	matcher, err := ignore.LoadFromDir(root, cfg.Ignore.Files, cfg.Ignore.Patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	var storeOpts []store.Option
	if o.ids != nil {
		storeOpts = append(storeOpts, store.WithIDGenerator(o.ids))
	}

	h := &Handle{
		root:     root,
		ctrl:     ctrl,
		cfg:      cfg,
		log:      o.log,
		versions: store.OpenAt(ctrl, storeOpts...),
		branches: branch.OpenAt(ctrl),
		lister:   manifest.NewLister(matcher),
	}
	h.log.Debug("opened repository", zap.String("root", root), zap.String("strategy", cfg.Merge.Strategy))
	return h, nil
}

// Root returns the working-tree root.
func (h *Handle) Root() string { return h.root }

// ControlDir returns the .mygit directory.
func (h *Handle) ControlDir() string { return h.ctrl }

// Config returns the loaded configuration.
func (h *Handle) Config() *config.Config { return h.cfg }

// Logger returns the handle's logger.
func (h *Handle) Logger() *zap.Logger { return h.log }

// Versions returns the version store.
func (h *Handle) Versions() *store.Store { return h.versions }

// Branches returns the branch store.
func (h *Handle) Branches() *branch.Store { return h.branches }

// Lister returns the ignore-aware file lister.
func (h *Handle) Lister() *manifest.Lister { return h.lister }

// ActiveTip returns the active branch and its newest version.
func (h *Handle) ActiveTip() (branch.ID, store.VersionID, error) {
	id, err := h.branches.ActiveBranchID()
	if err != nil {
		return "", "", err
	}
	log, err := h.branches.ActivityLog(id)
	if err != nil {
		return "", "", err
	}
	if len(log) == 0 {
		return id, "", nil
	}
	return id, log[0], nil
}

// PrepareVersion allocates a new version. An empty baseline seeds it from
// the active branch's tip snapshot; a branch with no versions yields an
// empty snapshot.
func (h *Handle) PrepareVersion(message string, baseline store.VersionID) (*store.Version, error) {
	if baseline == "" {
		_, tip, err := h.ActiveTip()
		if err != nil {
			return nil, err
		}
		baseline = tip
	}
	opts := store.PrepareOpts{Message: message}
	if baseline != "" {
		opts.Baseline = h.versions.SnapshotDir(baseline)
	}
	v, err := h.versions.Prepare(opts)
	if err != nil {
		return nil, err
	}
	h.log.Debug("prepared version", zap.String("version", string(v.ID)), zap.String("baseline", string(baseline)))
	return v, nil
}
