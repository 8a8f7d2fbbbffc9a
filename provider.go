package dirorg

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Provider turns a tree description into a proposed Plan. Implementations
// are opaque to the core: everything they return passes through the
// Validator before a single file is touched.
type Provider interface {
	Propose(ctx context.Context, req *ProposalRequest) (*Plan, error)
}

// ProposalRequest is the serialized, bounded description sent to a
// provider.
type ProposalRequest struct {
	Listing   string // one entry per line, relative paths
	Style     string // optional user policy hint
	FileCount int
	Truncated bool // listing hit the size budget
}

const truncationNotice = "... (listing truncated to stay within the request budget)\n"

const planSchemaHint = `Respond with a single JSON object of the form:
{"actions":[{"kind":"move|create-directory|merge|skip","source":"old/path","destination":"new/path","rationale":"why"}]}`

// reorgPrompt mirrors the policy the tool has always asked of its
// provider: flat lowercase layout, every file relocated, no leftover
// nesting.
const reorgPrompt = `Given the following contents of a top-level directory, reorganize them into new folders and rename the files where needed.

1. Maximum depth of 1 folder (e.g., folder/file.txt).
2. All files MUST be moved to a new location, even if it is just to a new root folder.
3. The new structure should be more organized and descriptive using file names and types for context.
4. Remove any existing subfolder structure and keep only the file's context.
5. Do not use spaces in new paths, only underscores.
6. All new paths should be lowercase only.
7. Do not use "deprecated" as a folder name.
8. Entries marked [project] or [large folder] are opaque: move them as a whole or leave them alone, never address their contents.

` + planSchemaHint

// BuildRequest serializes the scan into a listing bounded by budget
// bytes. Shallow entries survive truncation first so the provider always
// sees the top of the tree; a truncated listing says so on its last line.
func BuildRequest(scan *ScanResult, style string, budget int) *ProposalRequest {
	type line struct {
		depth int
		text  string
	}
	var lines []line
	var files int

	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		if n.Rel != "." {
			lines = append(lines, line{n.Depth, describeNode(n)})
			if n.Kind == NodeFile {
				files++
			}
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(scan.Root)

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].depth < lines[j].depth })

	req := &ProposalRequest{Style: style, FileCount: files}

	// The truncation notice counts against the budget too, so when the
	// full listing will not fit, entries only get what is left after it.
	limit := budget
	if budget > 0 {
		total := 0
		for _, l := range lines {
			total += len(l.text) + 1
		}
		if total > budget {
			req.Truncated = true
			limit = budget - len(truncationNotice)
		}
	}

	var b strings.Builder
	for _, l := range lines {
		if req.Truncated && b.Len()+len(l.text)+1 > limit {
			break
		}
		b.WriteString(l.text)
		b.WriteByte('\n')
	}
	if req.Truncated {
		b.WriteString(truncationNotice)
	}
	req.Listing = b.String()
	return req
}

func describeNode(n *TreeNode) string {
	switch n.Kind {
	case NodeProject:
		return fmt.Sprintf("%s/ [project, %d files, %d bytes]", n.Rel, n.FileCount, n.Size)
	case NodeLargeFolder:
		return fmt.Sprintf("%s/ [large folder, %d files, %d bytes]", n.Rel, n.FileCount, n.Size)
	case NodeDir:
		return n.Rel + "/"
	default:
		return fmt.Sprintf("%s (%d bytes)", n.Rel, n.Size)
	}
}

type planJSON struct {
	Actions []actionJSON `json:"actions"`
}

type actionJSON struct {
	Kind        string `json:"kind"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Rationale   string `json:"rationale"`
}

// ParsePlan extracts a Plan from a raw provider response. Providers tend
// to wrap the JSON in a fenced code block; that is peeled off first.
// Parsing is all-or-nothing: any malformed action rejects the whole
// response.
func ParsePlan(raw string) (*Plan, error) {
	payload := strings.TrimSpace(raw)
	if fenced := extractFencedBlock([]byte(payload)); fenced != "" {
		payload = fenced
	}

	var pj planJSON
	dec := json.NewDecoder(strings.NewReader(payload))
	if err := dec.Decode(&pj); err != nil {
		return nil, &ProposalParseError{Raw: raw, Err: err}
	}
	if len(pj.Actions) == 0 {
		return nil, &ProposalParseError{Raw: raw, Err: fmt.Errorf("no actions in response")}
	}

	plan := &Plan{Actions: make([]MoveAction, 0, len(pj.Actions))}
	for i, a := range pj.Actions {
		kind := ActionKind(a.Kind)
		switch kind {
		case ActionMove, ActionMerge:
			if a.Source == "" || a.Destination == "" {
				return nil, &ProposalParseError{Raw: raw, Err: fmt.Errorf("action %d: %s needs source and destination", i, kind)}
			}
		case ActionMkdir:
			if a.Destination == "" {
				return nil, &ProposalParseError{Raw: raw, Err: fmt.Errorf("action %d: create-directory needs destination", i)}
			}
		case ActionSkip:
			if a.Source == "" {
				return nil, &ProposalParseError{Raw: raw, Err: fmt.Errorf("action %d: skip needs source", i)}
			}
		default:
			return nil, &ProposalParseError{Raw: raw, Err: fmt.Errorf("action %d: unknown kind %q", i, a.Kind)}
		}
		plan.Actions = append(plan.Actions, MoveAction{
			Kind:      kind,
			Source:    a.Source,
			Dest:      a.Destination,
			Rationale: a.Rationale,
		})
	}
	return plan, nil
}
