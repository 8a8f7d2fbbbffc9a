package dirorg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	plan   *Plan
	err    error
	gotReq *ProposalRequest
}

func (s *stubProvider) Propose(_ context.Context, req *ProposalRequest) (*Plan, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.plan, nil
}

func testConfig(root string, dryRun bool) *Config {
	return &Config{
		Root:                 root,
		DryRun:               dryRun,
		LargeFolderThreshold: 30,
	}
}

func TestPipelineLiveEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")
	writeFile(t, root, "b.txt", "beta")
	writeFile(t, root, "c.txt", "gamma")

	provider := &stubProvider{plan: &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt", Rationale: "text"},
	}}}
	app := NewAppWithProvider(testConfig(root, false), provider)

	pv, err := app.Preview(context.Background())
	require.NoError(t, err)

	require.NotNil(t, provider.gotReq)
	assert.Equal(t, 3, provider.gotReq.FileCount)
	assert.Equal(t, []ActionKind{ActionMkdir, ActionMove}, actionKinds(pv.Plan),
		"validator inserts create-directory before the move")

	summary, err := app.Apply(context.Background(), pv.Plan)
	require.NoError(t, err)

	ok, fail, skip := summary.Counts()
	assert.Equal(t, 2, ok)
	assert.Zero(t, fail)
	assert.Zero(t, skip)

	moved, err := os.ReadFile(filepath.Join(root, "docs", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(moved))

	log := readLog(t, root)
	assert.Equal(t, 2, strings.Count(log, ": succeeded"))
}

func TestPipelineSourceVanishedBetweenPreviewAndApply(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")
	writeFile(t, root, "b.txt", "x")

	provider := &stubProvider{plan: &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt"},
		{Kind: ActionMove, Source: "b.txt", Dest: "docs/b.txt"},
	}}}
	app := NewAppWithProvider(testConfig(root, false), provider)

	pv, err := app.Preview(context.Background())
	require.NoError(t, err)

	// validated fine, then the file disappears before execution
	require.NoError(t, os.Remove(filepath.Join(root, "a.txt")))

	summary, err := app.Apply(context.Background(), pv.Plan)
	require.NoError(t, err)

	ok, fail, _ := summary.Counts()
	assert.Equal(t, 1, fail, "one failed of N")
	assert.Equal(t, 2, ok, "mkdir and the surviving move")
	require.Len(t, summary.Failed, 1)
	assert.Contains(t, summary.Failed[0], "source not found")
	assert.FileExists(t, filepath.Join(root, "docs", "b.txt"))
}

func TestPipelineCollisionNeverReachesExecutor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "x")
	writeFile(t, root, "b.pdf", "x")

	provider := &stubProvider{plan: &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "a.pdf", Dest: "archive/report.pdf"},
		{Kind: ActionMove, Source: "b.pdf", Dest: "archive/report.pdf"},
	}}}
	app := NewAppWithProvider(testConfig(root, false), provider)

	before := snapshot(t, root)
	_, err := app.Preview(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, before, snapshot(t, root), "filesystem untouched")
	assert.NoFileExists(t, filepath.Join(root, DefaultLogName), "no log entries before execution")
}

func TestPipelineDryRun(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	provider := &stubProvider{plan: &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "a.txt", Dest: "docs/a.txt"},
	}}}
	app := NewAppWithProvider(testConfig(root, true), provider)

	pv, err := app.Preview(context.Background())
	require.NoError(t, err)
	assert.Contains(t, pv.Rendered, "[dry-run]")

	before := snapshot(t, root)
	summary, err := app.Apply(context.Background(), pv.Plan)
	require.NoError(t, err)

	assert.Equal(t, before, snapshot(t, root), "dry run leaves the tree unchanged")
	_, _, skip := summary.Counts()
	assert.Equal(t, len(pv.Plan.Actions), skip)

	log := readLog(t, root)
	assert.Equal(t, len(pv.Plan.Actions), strings.Count(log, "skipped (dry-run)"))
}

func TestPipelineProviderErrorAbortsBeforeMutation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	provider := &stubProvider{err: &ProviderError{Kind: ProviderTimeout, Err: context.DeadlineExceeded}}
	app := NewAppWithProvider(testConfig(root, false), provider)

	_, err := app.Preview(context.Background())

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ProviderTimeout, perr.Kind)
}

func TestPipelineSummarizedNodesNeverInValidatedPlan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")
	writeFile(t, root, "proj/go.mod", "module proj")
	writeFile(t, root, "proj/main.go", "package main")

	provider := &stubProvider{plan: &Plan{Actions: []MoveAction{
		{Kind: ActionMove, Source: "proj/main.go", Dest: "code/main.go"},
	}}}
	app := NewAppWithProvider(testConfig(root, false), provider)

	_, err := app.Preview(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRecordAborted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	app := NewAppWithProvider(testConfig(root, false), &stubProvider{})
	require.NoError(t, app.RecordAborted())

	log := readLog(t, root)
	lines := strings.Split(strings.TrimRight(log, "\n"), "\n")
	require.Len(t, lines, 1, "nothing beyond the abort note")
	assert.Contains(t, lines[0], "note: run aborted by user")
}
