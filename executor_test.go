package dirorg

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, root string) *ChangeLogger {
	t.Helper()
	cl, err := NewChangeLogger(filepath.Join(root, DefaultLogName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cl.Close() })
	return cl
}

func readLog(t *testing.T, root string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, DefaultLogName))
	require.NoError(t, err)
	return string(data)
}

// snapshot lists every path under root except the change log artifacts.
func snapshot(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if rel == "." || strings.HasPrefix(rel, DefaultLogName) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)
	return paths
}

func TestExecutorLiveCreatesDirAndMoves(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "content")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMkdir, Dest: "docs"},
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt"},
	}}

	exec := NewExecutor(root, false, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.Equal(t, OutcomeSucceeded, outcomes[0].Status)
	assert.Equal(t, OutcomeSucceeded, outcomes[1].Status)

	moved, err := os.ReadFile(filepath.Join(root, "docs", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(moved))
	assert.NoFileExists(t, filepath.Join(root, "a.txt"))

	log := readLog(t, root)
	assert.Equal(t, 2, strings.Count(log, ": succeeded"))
}

func TestExecutorContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.txt", "x")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "vanished.txt", Dest: "docs/vanished.txt"},
		{Kind: ActionMkdir, Dest: "docs"},
		{Kind: ActionMove, Source: "b.txt", Dest: "docs/b.txt"},
	}}

	exec := NewExecutor(root, false, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.Equal(t, "source not found", outcomes[0].Reason)
	assert.Equal(t, OutcomeSucceeded, outcomes[1].Status)
	assert.Equal(t, OutcomeSucceeded, outcomes[2].Status)
	assert.FileExists(t, filepath.Join(root, "docs", "b.txt"))
}

func TestExecutorMoveDestinationTaken(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "mine")
	writeFile(t, root, "taken.txt", "theirs")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "a.txt", Dest: "taken.txt"},
	}}

	exec := NewExecutor(root, false, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.Equal(t, "destination already exists", outcomes[0].Reason)

	kept, _ := os.ReadFile(filepath.Join(root, "taken.txt"))
	assert.Equal(t, "theirs", string(kept), "never overwrite")
}

func TestExecutorMerge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old/a.txt", "a")
	writeFile(t, root, "old/b.txt", "b")
	writeFile(t, root, "new/c.txt", "c")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMerge, Source: "old", Dest: "new"},
	}}

	exec := NewExecutor(root, false, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSucceeded, outcomes[0].Status)
	assert.FileExists(t, filepath.Join(root, "new", "a.txt"))
	assert.FileExists(t, filepath.Join(root, "new", "b.txt"))
	assert.FileExists(t, filepath.Join(root, "new", "c.txt"))
	assert.NoDirExists(t, filepath.Join(root, "old"))
}

func TestExecutorMergeCollisionFailsWholeAction(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "old/a.txt", "old a")
	writeFile(t, root, "old/b.txt", "old b")
	writeFile(t, root, "new/a.txt", "new a")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMerge, Source: "old", Dest: "new"},
	}}

	exec := NewExecutor(root, false, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Reason, "collision")
	// nothing moved, including the non-colliding entry
	assert.FileExists(t, filepath.Join(root, "old", "b.txt"))
	kept, _ := os.ReadFile(filepath.Join(root, "new", "a.txt"))
	assert.Equal(t, "new a", string(kept))
}

func TestExecutorDryRunTouchesNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")
	writeFile(t, root, "b.txt", "x")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMkdir, Dest: "docs"},
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt"},
		{Kind: ActionMove, Source: "b.txt", Dest: "docs/b.txt"},
	}}

	before := snapshot(t, root)
	exec := NewExecutor(root, true, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, before, snapshot(t, root))
	require.Len(t, outcomes, 3)
	for _, out := range outcomes {
		assert.Equal(t, skipped("dry-run"), out)
	}

	log := readLog(t, root)
	assert.Equal(t, 3, strings.Count(log, "skipped (dry-run)"))
	assert.Equal(t, 3, strings.Count(log, "[dry-run]"))
}

func TestExecutorDryRunIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMkdir, Dest: "docs"},
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt"},
	}}

	cl := newTestLogger(t, root)
	exec := NewExecutor(root, true, cl, testLogger())

	first, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)
	second, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, first, second, "dry-run outcomes are reproducible")
}

func TestExecutorHaltsWhenLogWriteFails(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMkdir, Dest: "docs"},
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt"},
	}}

	cl := newTestLogger(t, root)
	require.NoError(t, cl.f.Close()) // every append from here on fails

	exec := NewExecutor(root, false, cl, testLogger())
	outcomes, err := exec.Execute(context.Background(), plan)

	var lerr *LogError
	require.ErrorAs(t, err, &lerr)
	assert.Less(t, len(outcomes), len(plan.Actions), "run stops at the unloggable action")

	// The first action was applied before its log write failed, the rest
	// of the plan was never attempted.
	assert.DirExists(t, filepath.Join(root, "docs"))
	assert.FileExists(t, filepath.Join(root, "a.txt"))
	assert.NoFileExists(t, filepath.Join(root, "docs", "a.txt"))
}

func TestExecutorCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	plan := &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "a.txt", Dest: "moved.txt"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(root, false, newTestLogger(t, root), testLogger())
	outcomes, err := exec.Execute(ctx, plan)

	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
	assert.FileExists(t, filepath.Join(root, "a.txt"), "no action without a log entry")
}
