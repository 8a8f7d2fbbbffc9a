package dirorg

import "time"

type NodeKind int

const (
	NodeFile NodeKind = iota
	NodeDir
	NodeProject     // directory collapsed because it looks like a software project
	NodeLargeFolder // directory collapsed because it holds too many entries
)

func (k NodeKind) String() string {
	switch k {
	case NodeFile:
		return "file"
	case NodeDir:
		return "dir"
	case NodeProject:
		return "project"
	case NodeLargeFolder:
		return "large-folder"
	}
	return "unknown"
}

// Summarized reports whether the node hides its children from the rest
// of the pipeline.
func (k NodeKind) Summarized() bool {
	return k == NodeProject || k == NodeLargeFolder
}

// TreeNode is one entry of the scanned tree. Children are sorted by name
// and owned by the parent; parents are found through ScanResult.Parent,
// never stored as back-pointers.
type TreeNode struct {
	Path      string // absolute
	Rel       string // relative to the scan root, "." for the root
	Kind      NodeKind
	Size      int64 // file size, or aggregate size for summarized nodes
	FileCount int   // files beneath a summarized node
	Depth     int
	Children  []*TreeNode
}

type ActionKind string

const (
	ActionMove  ActionKind = "move"
	ActionMkdir ActionKind = "create-directory"
	ActionMerge ActionKind = "merge"
	ActionSkip  ActionKind = "skip"
)

// MoveAction is one unit of a Plan. Paths are relative to the scan root
// until the Validator rewrites them to absolute, normalized form.
type MoveAction struct {
	Kind      ActionKind
	Source    string // empty for create-directory
	Dest      string
	Rationale string // carried through from the provider, never interpreted
}

// Plan is an ordered sequence of actions. Order is significant: the
// Validator hoists create-directory actions before the moves that need
// them and the Executor processes the slice front to back.
type Plan struct {
	Actions []MoveAction
}

type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeSkipped   OutcomeStatus = "skipped"
)

// ActionOutcome is the result of executing one MoveAction. Immutable
// once produced.
type ActionOutcome struct {
	Status OutcomeStatus
	Reason string // set for failed and skipped
}

func succeeded() ActionOutcome            { return ActionOutcome{Status: OutcomeSucceeded} }
func failed(reason string) ActionOutcome  { return ActionOutcome{Status: OutcomeFailed, Reason: reason} }
func skipped(reason string) ActionOutcome { return ActionOutcome{Status: OutcomeSkipped, Reason: reason} }

// ChangeLogEntry is one appended line of the durable change log.
type ChangeLogEntry struct {
	Timestamp time.Time
	RunID     string
	Action    MoveAction
	Outcome   ActionOutcome
	DryRun    bool
}

// RunSummary aggregates the outcomes of one execution.
type RunSummary struct {
	DryRun    bool
	Outcomes  []ActionOutcome
	Succeeded []string
	Failed    []string
	Skipped   []string
	Message   string
}

func (s *RunSummary) Counts() (succeeded, failedCount, skippedCount int) {
	return len(s.Succeeded), len(s.Failed), len(s.Skipped)
}
