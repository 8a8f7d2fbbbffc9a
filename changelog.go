package dirorg

import (
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// DefaultLogName is the change log created inside the organized root.
const DefaultLogName = "dirorg_changes.log"

// ChangeLogger appends one durable line per attempted action. Entries
// are flushed as they arrive so a crash mid-run still leaves the log
// reflecting everything attempted up to that point. The file is never
// rewritten, only extended.
type ChangeLogger struct {
	path  string
	f     *os.File
	lock  *flock.Flock
	runID string
}

// NewChangeLogger opens (or creates) the append-only log and takes a
// file lock so two runs cannot interleave entries on the same root.
func NewChangeLogger(path string) (*ChangeLogger, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, &LogError{Path: path, Err: err}
	}
	if !locked {
		return nil, &LogError{Path: path, Err: fmt.Errorf("another run holds the lock")}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		_ = lock.Unlock()
		return nil, &LogError{Path: path, Err: err}
	}

	return &ChangeLogger{
		path:  path,
		f:     f,
		lock:  lock,
		runID: uuid.NewString()[:8],
	}, nil
}

func (l *ChangeLogger) RunID() string { return l.runID }

// Append writes one entry and syncs it to disk. Any failure is a
// LogError, which callers must treat as fatal.
func (l *ChangeLogger) Append(e ChangeLogEntry) error {
	if _, err := l.f.WriteString(formatEntry(e) + "\n"); err != nil {
		return &LogError{Path: l.path, Err: err}
	}
	if err := l.f.Sync(); err != nil {
		return &LogError{Path: l.path, Err: err}
	}
	return nil
}

// Note records a run-level event that is not tied to an action, such as
// the user declining the preview.
func (l *ChangeLogger) Note(msg string) error {
	line := fmt.Sprintf("%s run=%s note: %s\n", time.Now().UTC().Format(time.RFC3339), l.runID, msg)
	if _, err := l.f.WriteString(line); err != nil {
		return &LogError{Path: l.path, Err: err}
	}
	if err := l.f.Sync(); err != nil {
		return &LogError{Path: l.path, Err: err}
	}
	return nil
}

func (l *ChangeLogger) Close() error {
	err := l.f.Close()
	if unlockErr := l.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

func formatEntry(e ChangeLogEntry) string {
	mode := ""
	if e.DryRun {
		mode = "[dry-run] "
	}

	var action string
	switch e.Action.Kind {
	case ActionMkdir:
		action = fmt.Sprintf("%s %q", e.Action.Kind, e.Action.Dest)
	case ActionSkip:
		action = fmt.Sprintf("%s %q", e.Action.Kind, e.Action.Source)
	default:
		action = fmt.Sprintf("%s %q -> %q", e.Action.Kind, e.Action.Source, e.Action.Dest)
	}

	out := string(e.Outcome.Status)
	if e.Outcome.Reason != "" {
		out += " (" + e.Outcome.Reason + ")"
	}

	return fmt.Sprintf("%s run=%s %s%s: %s",
		e.Timestamp.UTC().Format(time.RFC3339), e.RunID, mode, action, out)
}
