package commands

import (
	"os"
	"time"

	"github.com/ankitiscracked/mygit/internal/store"
)

// Deps groups external dependencies so tests can inject fakes.
type Deps struct {
	Now   func() time.Time
	Getwd func() (string, error)
	// IDs allocates version ids. Nil uses random ids stamped with Now.
	IDs store.IDGenerator
}

var defaultDeps = Deps{
	Now:   time.Now,
	Getwd: os.Getwd,
}

var deps = defaultDeps

func normalizeDeps(d Deps) Deps {
	if d.Now == nil {
		d.Now = defaultDeps.Now
	}
	if d.Getwd == nil {
		d.Getwd = defaultDeps.Getwd
	}
	return d
}

// SetDeps overrides command dependencies (use in tests).
func SetDeps(d Deps) {
	deps = normalizeDeps(d)
}

// ResetDeps restores default dependencies.
func ResetDeps() {
	deps = defaultDeps
}

func idGenerator() store.IDGenerator {
	if deps.IDs != nil {
		return deps.IDs
	}
	return store.NewRandomIDs(deps.Now)
}
