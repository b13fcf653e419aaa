package merge

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ankitiscracked/mygit/internal/branch"
	"github.com/ankitiscracked/mygit/internal/config"
	"github.com/ankitiscracked/mygit/internal/conflicts"
	"github.com/ankitiscracked/mygit/internal/dag"
	"github.com/ankitiscracked/mygit/internal/repo"
	"github.com/ankitiscracked/mygit/internal/store"
	"github.com/ankitiscracked/mygit/internal/testutil"
)

const tenLines = "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"

func newExecutor(t *testing.T, r *testutil.Repo, opts []repo.Option, ids ...store.VersionID) *Executor {
	t.Helper()
	if len(ids) > 0 {
		opts = append(opts, repo.WithIDGenerator(testutil.NewSeqIDs(ids...)))
	}
	h, err := repo.OpenAt(r.Root, opts...)
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	e, err := New(h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func logOf(ids ...store.VersionID) []store.VersionID { return ids }

// divergedRepo has main and feature both one version past V1.
func divergedRepo(t *testing.T, ancestor, receiving, incoming map[string]string) *testutil.Repo {
	t.Helper()
	r := testutil.NewRepo(t)
	r.AddVersion("V1", "base", ancestor)
	r.AddVersion("V2", "main work", receiving)
	r.AddVersion("V3", "feature work", incoming)
	r.AddBranch("b-main", "main", "V2", "V1")
	r.AddBranch("b-feat", "feature", "V3", "V1")
	r.Checkout("b-main")
	return r
}

func TestIdenticalTipsIsNoop(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("V1", "base", map[string]string{"a.txt": "a\n"})
	r.AddBranch("b-main", "main", "V1")
	r.AddBranch("b-feat", "feature", "V1")
	r.Checkout("b-main")
	testutil.WriteFiles(t, r.Root, map[string]string{"dirty.txt": "uncommitted"})
	before := r.WorkingTree()

	res, err := newExecutor(t, r, nil).Run("feature")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Relation != dag.UpToDate {
		t.Fatalf("relation = %s", res.Relation)
	}
	if !reflect.DeepEqual(r.WorkingTree(), before) {
		t.Fatalf("working tree changed")
	}
	if r.Head() != "b-main@V1" {
		t.Fatalf("HEAD = %s", r.Head())
	}
	if !reflect.DeepEqual(r.VersionIDs(), logOf("V1")) {
		t.Fatalf("versions = %v", r.VersionIDs())
	}
}

func TestUnrelatedHistoriesMutatesNothing(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("A1", "a", map[string]string{"a.txt": "a\n"})
	r.AddVersion("B1", "b", map[string]string{"b.txt": "b\n"})
	r.AddBranch("b-main", "main", "A1")
	r.AddBranch("b-feat", "feature", "B1")
	r.Checkout("b-main")
	tree := r.WorkingTree()

	_, err := newExecutor(t, r, nil, "M1").Run("feature")
	if !errors.Is(err, ErrUnrelatedHistories) {
		t.Fatalf("expected ErrUnrelatedHistories, got %v", err)
	}
	if !reflect.DeepEqual(r.Log("b-main"), logOf("A1")) || !reflect.DeepEqual(r.Log("b-feat"), logOf("B1")) {
		t.Fatalf("logs changed: %v / %v", r.Log("b-main"), r.Log("b-feat"))
	}
	if r.Head() != "b-main@A1" {
		t.Fatalf("HEAD = %s", r.Head())
	}
	if !reflect.DeepEqual(r.WorkingTree(), tree) {
		t.Fatalf("working tree changed")
	}
	if !reflect.DeepEqual(r.VersionIDs(), logOf("A1", "B1")) {
		t.Fatalf("versions = %v", r.VersionIDs())
	}
}

func TestUnknownBranch(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("V1", "base", map[string]string{"a.txt": "a\n"})
	r.AddBranch("b-main", "main", "V1")
	r.Checkout("b-main")

	if _, err := newExecutor(t, r, nil).Run("nope"); !errors.Is(err, branch.ErrUnknownBranch) {
		t.Fatalf("expected ErrUnknownBranch, got %v", err)
	}
}

func TestNothingToMerge(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("V1", "base", map[string]string{"a.txt": "a\n"})
	r.AddBranch("b-main", "main", "V1")
	r.AddBranch("b-empty", "empty")
	r.Checkout("b-main")

	if _, err := newExecutor(t, r, nil).Run(" empty "); !errors.Is(err, ErrNothingToMerge) {
		t.Fatalf("expected ErrNothingToMerge, got %v", err)
	}
}

func TestFastForward(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("V0", "root", map[string]string{"a.txt": "a\n"})
	r.AddVersion("V1", "main tip", map[string]string{"a.txt": "a\n", "old.txt": "old\n"})
	r.AddVersion("V2", "f1", map[string]string{"a.txt": "a\nb\n", "old.txt": "old\n"})
	r.AddVersion("V3", "f2", map[string]string{"a.txt": "a\nb\nc\n", "dir/new.txt": "new\n"})
	r.AddBranch("b-main", "main", "V1", "V0")
	r.AddBranch("b-feat", "feature", "V3", "V2", "V1", "V0")
	r.Checkout("b-main")

	e := newExecutor(t, r, nil)
	res, err := e.Run("feature")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Relation != dag.FastForward {
		t.Fatalf("relation = %s", res.Relation)
	}
	if got := r.Log("b-main"); !reflect.DeepEqual(got, logOf("V3", "V2", "V1", "V0")) {
		t.Fatalf("main log = %v", got)
	}
	if got := r.Log("b-feat"); !reflect.DeepEqual(got, logOf("V3", "V2", "V1", "V0")) {
		t.Fatalf("feature log = %v", got)
	}
	if r.Head() != "b-main@V3" {
		t.Fatalf("HEAD = %s", r.Head())
	}
	if !reflect.DeepEqual(r.WorkingTree(), r.Snapshot("V3")) {
		t.Fatalf("working tree %v != snapshot %v", r.WorkingTree(), r.Snapshot("V3"))
	}
	if !reflect.DeepEqual(r.VersionIDs(), logOf("V0", "V1", "V2", "V3")) {
		t.Fatalf("fast-forward must not create versions: %v", r.VersionIDs())
	}

	wantFiles := []FileStat{
		{Path: "a.txt", Added: 2},
		{Path: "dir/new.txt", Added: 1},
		{Path: "old.txt", Removed: 1},
	}
	if !reflect.DeepEqual(res.Files, wantFiles) {
		t.Fatalf("files = %+v, want %+v", res.Files, wantFiles)
	}

	again, err := e.Run("feature")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Relation != dag.UpToDate {
		t.Fatalf("second run relation = %s", again.Relation)
	}
}

func TestFastForwardMissingSnapshot(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("V1", "base", map[string]string{"a.txt": "a\n"})
	r.AddBranch("b-main", "main", "V1")
	r.AddBranch("b-feat", "feature", "V2", "V1")
	r.Checkout("b-main")

	_, err := newExecutor(t, r, nil).Run("feature")
	if !errors.Is(err, store.ErrMissingSnapshot) {
		t.Fatalf("expected ErrMissingSnapshot, got %v", err)
	}
	if !reflect.DeepEqual(r.Log("b-main"), logOf("V1")) || r.Head() != "b-main@V1" {
		t.Fatalf("state changed: %v %s", r.Log("b-main"), r.Head())
	}
}

func TestThreeWayDisjointChanges(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": tenLines, "b.txt": "b\n", "c.txt": "c\n"},
		map[string]string{"a.txt": "ONE\n2\n3\n4\n5\n6\n7\n8\n9\n10\n", "b.txt": "B\n", "c.txt": "c\n"},
		map[string]string{"a.txt": "1\n2\n3\n4\n5\n6\n7\n8\n9\nTEN\n", "b.txt": "b\n", "c.txt": "C\n", "d.txt": "d\n"},
	)

	res, err := newExecutor(t, r, nil, "M1").Run("feature")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Relation != dag.ThreeWay || res.Version != "M1" || res.Ancestor != "V1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Conflicts.HasConflicts() {
		t.Fatalf("unexpected conflicts: %v", res.Conflicts.All())
	}

	want := map[string]string{
		"a.txt": "ONE\n2\n3\n4\n5\n6\n7\n8\n9\nTEN\n",
		"b.txt": "B\n",
		"c.txt": "C\n",
		"d.txt": "d\n",
	}
	if got := r.Snapshot("M1"); !reflect.DeepEqual(got, want) {
		t.Fatalf("merged snapshot = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(r.WorkingTree(), want) {
		t.Fatalf("working tree = %v", r.WorkingTree())
	}
	if got := r.Log("b-main"); !reflect.DeepEqual(got, logOf("M1", "V2", "V1")) {
		t.Fatalf("main log = %v", got)
	}
	if got := r.Log("b-feat"); !reflect.DeepEqual(got, logOf("V3", "V1")) {
		t.Fatalf("feature log = %v", got)
	}
	if r.Head() != "b-main@M1" {
		t.Fatalf("HEAD = %s", r.Head())
	}
	msg, err := store.OpenAt(r.Ctrl).Message("M1")
	if err != nil || msg != "Merge 'feature' branch into main" {
		t.Fatalf("message = %q, %v", msg, err)
	}
}

func TestThreeWayUntouchedFilesKeepAncestorContent(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"keep.txt": "keep\n", "x.txt": "x\n"},
		map[string]string{"keep.txt": "keep\n", "x.txt": "X\n"},
		map[string]string{"keep.txt": "keep\n", "x.txt": "x\n"},
	)
	if _, err := newExecutor(t, r, nil, "M1").Run("feature"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := r.Snapshot("M1"); got["keep.txt"] != "keep\n" || got["x.txt"] != "X\n" {
		t.Fatalf("merged snapshot = %v", got)
	}
}

func TestThreeWayIncomingAddsFile(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "1"},
		map[string]string{"a.txt": "1"},
		map[string]string{"a.txt": "1", "b.txt": "new"},
	)

	res, err := newExecutor(t, r, nil, "M1").Run("feature")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Conflicts.HasConflicts() {
		t.Fatalf("unexpected conflicts: %v", res.Conflicts.All())
	}
	if got := r.Snapshot("M1")["b.txt"]; got != "new" {
		t.Fatalf("b.txt = %q", got)
	}
	if want := []FileStat{{Path: "b.txt", Added: 1}}; !reflect.DeepEqual(res.Files, want) {
		t.Fatalf("files = %+v", res.Files)
	}
}

func TestThreeWayConflictLeavesHistoryUntouched(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "1", "e.txt": "e\n"},
		map[string]string{"a.txt": "1\n2", "e.txt": "e\n"},
		map[string]string{"a.txt": "1\n3", "e.txt": "E\n"},
	)

	res, err := newExecutor(t, r, nil, "M1").Run("feature")
	if !errors.Is(err, ErrConflicts) {
		t.Fatalf("expected ErrConflicts, got %v", err)
	}
	all := res.Conflicts.All()
	if len(all) != 1 {
		t.Fatalf("expected exactly one conflict, got %+v", all)
	}
	c := all[0]
	if c.Path != "a.txt" || c.Message != conflicts.DefaultMessage || c.Attribution != "feature onto V1" {
		t.Fatalf("unexpected conflict: %+v", c)
	}

	// Conflicts are only ever raised while applying the incoming side.
	if len(res.Conflicts.PassA) != 0 || c.Pass != conflicts.PassIncoming {
		t.Fatalf("expected the conflict in the incoming pass: %+v", res.Conflicts)
	}

	if got := r.Log("b-main"); !reflect.DeepEqual(got, logOf("V2", "V1")) {
		t.Fatalf("main log = %v", got)
	}
	if r.Head() != "b-main@V2" {
		t.Fatalf("HEAD = %s", r.Head())
	}
	if _, err := os.Stat(store.OpenAt(r.Ctrl).VersionDir("M1")); !os.IsNotExist(err) {
		t.Fatalf("merge version should be discarded, stat err = %v", err)
	}
	if !reflect.DeepEqual(r.VersionIDs(), logOf("V1", "V2", "V3")) {
		t.Fatalf("versions = %v", r.VersionIDs())
	}
}

func TestThreeWayConflictLeavesPartialResultsInWorkingTree(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "1", "e.txt": "e\n"},
		map[string]string{"a.txt": "1\n2", "e.txt": "e\n"},
		map[string]string{"a.txt": "1\n3", "e.txt": "E\n"},
	)

	if _, err := newExecutor(t, r, nil, "M1").Run("feature"); !errors.Is(err, ErrConflicts) {
		t.Fatalf("expected ErrConflicts, got %v", err)
	}

	// The incoming change to e.txt was applied before the merge was
	// abandoned and stays in the working tree for manual resolution.
	tree := r.WorkingTree()
	if tree["e.txt"] != "E\n" {
		t.Fatalf("e.txt = %q, want incoming change left behind", tree["e.txt"])
	}
	if tree["a.txt"] != "1\n2" {
		t.Fatalf("a.txt = %q, want receiving content", tree["a.txt"])
	}
}

func TestThreeWayRerunIsUpToDate(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "a\n", "b.txt": "b\n"},
		map[string]string{"a.txt": "A\n", "b.txt": "b\n"},
		map[string]string{"a.txt": "a\n", "b.txt": "B\n"},
	)
	e := newExecutor(t, r, nil, "M1")
	if _, err := e.Run("feature"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if from, err := r.Versions.MergedFrom("M1"); err != nil || from != "V3" {
		t.Fatalf("MergedFrom(M1) = %q, %v", from, err)
	}

	// Tips still differ and the fork point is still V1, but M1 records V3.
	res, err := e.Run("feature")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Relation != dag.UpToDate || res.Version != "" {
		t.Fatalf("second run: relation %s version %q", res.Relation, res.Version)
	}
	if got := r.Log("b-main"); !reflect.DeepEqual(got, logOf("M1", "V2", "V1")) {
		t.Fatalf("main log = %v", got)
	}
	if got := r.Head(); got != "b-main@M1" {
		t.Fatalf("HEAD = %s", got)
	}
}

func TestThreeWayAfterIncomingAdvances(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "a\n"},
		map[string]string{"a.txt": "A\n"},
		map[string]string{"a.txt": "a\n", "n.txt": "n\n"},
	)
	e := newExecutor(t, r, nil, "M1", "M2")
	if _, err := e.Run("feature"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r.AddVersion("V4", "more feature work", map[string]string{"a.txt": "a\n", "n.txt": "n\n", "z.txt": "z\n"})
	if err := r.Branches.WriteActivityLog("b-feat", logOf("V4", "V3", "V1")); err != nil {
		t.Fatalf("WriteActivityLog: %v", err)
	}

	res, err := e.Run("feature")
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Relation != dag.ThreeWay || res.Version != "M2" {
		t.Fatalf("second run: relation %s version %q", res.Relation, res.Version)
	}
	want := map[string]string{"a.txt": "A\n", "n.txt": "n\n", "z.txt": "z\n"}
	if got := r.Snapshot("M2"); !reflect.DeepEqual(got, want) {
		t.Fatalf("M2 snapshot = %v, want %v", got, want)
	}
}

func TestMergeBackIntoIncomingBranch(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "a\n"},
		map[string]string{"a.txt": "A\n"},
		map[string]string{"a.txt": "a\n", "n.txt": "n\n"},
	)
	e := newExecutor(t, r, nil, "M1", "M2")
	if _, err := e.Run("feature"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	r.Checkout("b-feat")
	res, err := e.Run("main")
	if err != nil {
		t.Fatalf("Run main into feature: %v", err)
	}
	if res.Relation != dag.ThreeWay || res.Version != "M2" {
		t.Fatalf("unexpected result: %s %s", res.Relation, res.Version)
	}
	if res.Message != "Merge 'main' branch into feature" {
		t.Fatalf("message = %q", res.Message)
	}
	want := map[string]string{"a.txt": "A\n", "n.txt": "n\n"}
	if got := r.Snapshot("M2"); !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot = %v", got)
	}
	if r.Head() != "b-feat@M2" {
		t.Fatalf("HEAD = %s", r.Head())
	}
	if got := r.Log("b-main"); !reflect.DeepEqual(got, logOf("M1", "V2", "V1")) {
		t.Fatalf("main log must be untouched: %v", got)
	}
}

func TestThreeWayMissingSnapshot(t *testing.T) {
	r := testutil.NewRepo(t)
	r.AddVersion("V1", "base", map[string]string{"a.txt": "a\n"})
	r.AddVersion("V2", "main", map[string]string{"a.txt": "A\n"})
	r.AddBranch("b-main", "main", "V2", "V1")
	r.AddBranch("b-feat", "feature", "V3", "V1")
	r.Checkout("b-main")

	_, err := newExecutor(t, r, nil, "M1").Run("feature")
	if !errors.Is(err, store.ErrMissingSnapshot) {
		t.Fatalf("expected ErrMissingSnapshot, got %v", err)
	}
	if !reflect.DeepEqual(r.VersionIDs(), logOf("V1", "V2")) {
		t.Fatalf("no version should be allocated: %v", r.VersionIDs())
	}
}

func TestStrategyFromConfig(t *testing.T) {
	nearby := func(t *testing.T) *testutil.Repo {
		return divergedRepo(t,
			map[string]string{"a.txt": "1\n2\n3\n4\n"},
			map[string]string{"a.txt": "X\n2\n3\n4\n"},
			map[string]string{"a.txt": "1\n2\nY\n4\n"},
		)
	}

	t.Run("patch", func(t *testing.T) {
		r := nearby(t)
		_, err := newExecutor(t, r, nil, "M1").Run("feature")
		if !errors.Is(err, ErrConflicts) {
			t.Fatalf("expected ErrConflicts with patch strategy, got %v", err)
		}
	})

	t.Run("patch without context", func(t *testing.T) {
		r := nearby(t)
		cfg := config.Default()
		cfg.Merge.Context = 0
		if _, err := newExecutor(t, r, []repo.Option{repo.WithConfig(cfg)}, "M1").Run("feature"); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if got := r.Snapshot("M1")["a.txt"]; got != "X\n2\nY\n4\n" {
			t.Fatalf("a.txt = %q", got)
		}
	})

	t.Run("patch without context keeps disjoint insertions", func(t *testing.T) {
		r := divergedRepo(t,
			map[string]string{"a.txt": "1\n2\n", "b.txt": "b\n"},
			map[string]string{"a.txt": "1\nX\n2\n", "b.txt": "b\n"},
			map[string]string{"a.txt": "1\n2\n", "b.txt": "b\nmore\n"},
		)
		cfg := config.Default()
		cfg.Merge.Context = 0
		res, err := newExecutor(t, r, []repo.Option{repo.WithConfig(cfg)}, "M1").Run("feature")
		if err != nil {
			t.Fatalf("Run: %v (conflicts: %v)", err, res)
		}
		want := map[string]string{"a.txt": "1\nX\n2\n", "b.txt": "b\nmore\n"}
		if got := r.Snapshot("M1"); !reflect.DeepEqual(got, want) {
			t.Fatalf("M1 snapshot = %v, want %v", got, want)
		}
	})

	t.Run("diff3", func(t *testing.T) {
		r := nearby(t)
		cfg := config.Default()
		cfg.Merge.Strategy = config.StrategyDiff3
		e := newExecutor(t, r, []repo.Option{repo.WithConfig(cfg)}, "M1")
		if e.merger.Name() != config.StrategyDiff3 {
			t.Fatalf("strategy = %s", e.merger.Name())
		}
		if _, err := e.Run("feature"); err != nil {
			t.Fatalf("Run: %v", err)
		}
	})
}

// hookIDs runs hook when the merge version id is allocated, after both
// activity logs have been read.
type hookIDs struct {
	id   store.VersionID
	hook func()
}

func (g hookIDs) NewVersionID() store.VersionID {
	g.hook()
	return g.id
}

func replaceWithDir(t *testing.T, path string) {
	t.Helper()
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	testutil.WriteFiles(t, path, map[string]string{"blocker": "x"})
}

func TestFinalizeFailureDiscardsVersion(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "a\n"},
		map[string]string{"a.txt": "A\n"},
		map[string]string{"a.txt": "a\n", "b.txt": "b\n"},
	)
	activity := filepath.Join(r.Ctrl, "branch", "b-main", "ACTIVITY")
	ids := hookIDs{id: "M1", hook: func() { replaceWithDir(t, activity) }}

	e := newExecutor(t, r, []repo.Option{repo.WithIDGenerator(ids)})
	if _, err := e.Run("feature"); !errors.Is(err, branch.ErrCorruptStore) {
		t.Fatalf("expected ErrCorruptStore, got %v", err)
	}
	if got := r.VersionIDs(); !reflect.DeepEqual(got, logOf("V1", "V2", "V3")) {
		t.Fatalf("versions = %v, want M1 discarded", got)
	}
}

func TestHeadFailureKeepsLoggedVersion(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "a\n"},
		map[string]string{"a.txt": "A\n"},
		map[string]string{"a.txt": "a\n", "b.txt": "b\n"},
	)
	ids := hookIDs{id: "M1", hook: func() { replaceWithDir(t, filepath.Join(r.Ctrl, "HEAD")) }}

	e := newExecutor(t, r, []repo.Option{repo.WithIDGenerator(ids)})
	if _, err := e.Run("feature"); !errors.Is(err, store.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if got := r.Log("b-main"); !reflect.DeepEqual(got, logOf("M1", "V2", "V1")) {
		t.Fatalf("main log = %v", got)
	}
	if !r.Versions.SnapshotExists("M1") {
		t.Fatal("M1 is on the log and must be kept")
	}
}

func TestConflictReportSavedAndCleared(t *testing.T) {
	r := divergedRepo(t,
		map[string]string{"a.txt": "1"},
		map[string]string{"a.txt": "1\n2"},
		map[string]string{"a.txt": "1\n3"},
	)
	path := filepath.Join(r.Ctrl, ConflictsFileName)

	res, err := newExecutor(t, r, nil, "M1").Run("feature")
	if !errors.Is(err, ErrConflicts) {
		t.Fatalf("expected ErrConflicts, got %v", err)
	}
	if res.ConflictsFile != path {
		t.Fatalf("ConflictsFile = %q, want %q", res.ConflictsFile, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var saved conflicts.Report
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(saved.PassB) != 1 || saved.PassB[0].Path != "a.txt" || saved.Ancestor != "V1" {
		t.Fatalf("saved report = %+v", saved)
	}

	// Resolve by hand on main, then merge a fresh feature tip.
	r.AddVersion("V4", "resolved", map[string]string{"a.txt": "1\n3"})
	if err := r.Branches.WriteActivityLog("b-main", logOf("V4", "V3", "V1")); err != nil {
		t.Fatalf("WriteActivityLog: %v", err)
	}
	r.AddVersion("V5", "more", map[string]string{"a.txt": "1\n3", "c.txt": "c\n"})
	if err := r.Branches.WriteActivityLog("b-feat", logOf("V5", "V4", "V3", "V1")); err != nil {
		t.Fatalf("WriteActivityLog: %v", err)
	}
	if _, err := newExecutor(t, r, nil).Run("feature"); err != nil {
		t.Fatalf("fast-forward: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("conflict report still present: %v", err)
	}
}
