package dirorg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Executor applies a validated plan in strict plan order. Every action
// is attempted independently: one failure never aborts the run, it only
// shows up as a failed outcome. Nothing is applied without a change log
// entry, and a log write failure stops the run immediately.
type Executor struct {
	root      string
	dryRun    bool
	changelog *ChangeLogger
	log       *logrus.Logger
}

func NewExecutor(root string, dryRun bool, changelog *ChangeLogger, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{root: root, dryRun: dryRun, changelog: changelog, log: logger}
}

// Execute returns one outcome per action, in plan order. The error is
// non-nil only for run-fatal conditions: a change log write failure or
// cancellation. Outcomes gathered before the stop are still returned.
func (e *Executor) Execute(ctx context.Context, plan *Plan) ([]ActionOutcome, error) {
	outcomes := make([]ActionOutcome, 0, len(plan.Actions))

	for _, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		var outcome ActionOutcome
		if e.dryRun {
			outcome = skipped("dry-run")
		} else {
			outcome = e.apply(action)
		}

		if outcome.Status == OutcomeFailed {
			e.log.Warnf("%s %s -> %s: %s", action.Kind, action.Source, action.Dest, outcome.Reason)
		} else {
			e.log.Debugf("%s %s -> %s: %s", action.Kind, action.Source, action.Dest, outcome.Status)
		}

		err := e.changelog.Append(ChangeLogEntry{
			Timestamp: time.Now(),
			RunID:     e.changelog.RunID(),
			Action:    action,
			Outcome:   outcome,
			DryRun:    e.dryRun,
		})
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (e *Executor) apply(a MoveAction) ActionOutcome {
	switch a.Kind {
	case ActionMkdir:
		return e.applyMkdir(a)
	case ActionMove:
		return e.applyMove(a)
	case ActionMerge:
		return e.applyMerge(a)
	case ActionSkip:
		reason := a.Rationale
		if reason == "" {
			reason = "skipped by provider"
		}
		return skipped(reason)
	}
	return failed(fmt.Sprintf("unknown action kind %q", a.Kind))
}

func (e *Executor) abs(rel string) string {
	return filepath.Join(e.root, filepath.FromSlash(rel))
}

func (e *Executor) applyMkdir(a MoveAction) ActionOutcome {
	dest := e.abs(a.Dest)
	if info, err := os.Lstat(dest); err == nil && !info.IsDir() {
		return failed("destination exists and is not a directory")
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return failed(err.Error())
	}
	return succeeded()
}

// applyMove re-checks both endpoints right before renaming: arbitrary
// time may have passed since the scan and the tree is allowed to have
// drifted underneath us.
func (e *Executor) applyMove(a MoveAction) ActionOutcome {
	src, dest := e.abs(a.Source), e.abs(a.Dest)
	if _, err := os.Lstat(src); err != nil {
		return failed("source not found")
	}
	if _, err := os.Lstat(dest); err == nil {
		return failed("destination already exists")
	}
	if err := os.Rename(src, dest); err != nil {
		return failed(err.Error())
	}
	return succeeded()
}

// applyMerge moves the children of a source directory into an existing
// destination directory. Same-name collisions fail the whole action
// before anything is moved: the policy is never to overwrite.
func (e *Executor) applyMerge(a MoveAction) ActionOutcome {
	src, dest := e.abs(a.Source), e.abs(a.Dest)

	srcInfo, err := os.Lstat(src)
	if err != nil {
		return failed("source not found")
	}
	if !srcInfo.IsDir() {
		return failed("merge source is not a directory")
	}
	destInfo, err := os.Lstat(dest)
	if err != nil {
		return failed("merge destination not found")
	}
	if !destInfo.IsDir() {
		return failed("merge destination is not a directory")
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return failed(err.Error())
	}
	for _, entry := range entries {
		if _, err := os.Lstat(filepath.Join(dest, entry.Name())); err == nil {
			return failed(fmt.Sprintf("name collision on %q", entry.Name()))
		}
	}
	for _, entry := range entries {
		if err := os.Rename(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return failed(fmt.Sprintf("moving %q: %v", entry.Name(), err))
		}
	}
	if err := os.Remove(src); err != nil {
		return failed(fmt.Sprintf("removing emptied source: %v", err))
	}
	return succeeded()
}
