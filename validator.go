package dirorg

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Validator checks a raw Plan against the scanned tree and rewrites it
// into an executable one. It never mutates the filesystem; it only
// inspects, normalizes paths, and reorders or augments the action list.
type Validator struct {
	scan *ScanResult
}

func NewValidator(scan *ScanResult) *Validator {
	return &Validator{scan: scan}
}

// Validate returns a plan safe to hand to the Executor, or a
// ValidationError listing every violation found. Paths in the returned
// plan are cleaned, slash-separated and relative to the scan root;
// create-directory actions implied by moves are added and hoisted before
// everything else.
func (v *Validator) Validate(raw *Plan) (*Plan, error) {
	var violations []Violation
	destSeen := make(map[string]MoveAction)
	mkdirSeen := make(map[string]bool)

	var mkdirs []MoveAction
	var rest []MoveAction

	// addMkdir claims dest and its missing parents as create-directory
	// actions. Each claimed path lands in destSeen so no later action can
	// target it; a path already claimed by a non-mkdir action is a
	// collision, reported via the returned reason.
	addMkdir := func(dest, rationale string) string {
		for dir := dest; dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
			if mkdirSeen[dir] || v.dirExists(dir) {
				continue
			}
			if prev, dup := destSeen[dir]; dup && prev.Kind != ActionMkdir {
				return "implied directory " + dir + " collides with an earlier action"
			}
			mkdirSeen[dir] = true
			action := MoveAction{Kind: ActionMkdir, Dest: dir, Rationale: rationale}
			destSeen[dir] = action
			mkdirs = append(mkdirs, action)
		}
		return ""
	}

	for _, a := range raw.Actions {
		action := a
		violated := false
		flag := func(reason string) {
			violations = append(violations, Violation{Action: action, Reason: reason})
			violated = true
		}

		var ok bool
		if action.Kind == ActionMove || action.Kind == ActionMerge || action.Kind == ActionSkip {
			if action.Source, ok = v.normalize(action.Source); !ok {
				flag("source escapes the root")
				continue
			}
		}
		if action.Kind != ActionSkip {
			if action.Dest, ok = v.normalize(action.Dest); !ok {
				flag("destination escapes the root")
				continue
			}
		}

		switch action.Kind {
		case ActionSkip:
			rest = append(rest, action)
			continue

		case ActionMkdir:
			if prev, dup := destSeen[action.Dest]; dup && prev.Kind != ActionMkdir {
				flag("destination already targeted by " + string(prev.Kind))
			}
			if v.scan.SummarizedAncestor(action.Dest) != nil {
				flag("destination is inside a summarized folder")
			}
			if violated {
				continue
			}
			destSeen[action.Dest] = action
			if reason := addMkdir(action.Dest, action.Rationale); reason != "" {
				flag(reason)
			}
			continue
		}

		// move or merge
		src := v.scan.Lookup(action.Source)
		switch {
		case src == nil && v.scan.SummarizedAncestor(action.Source) != nil:
			flag("source is hidden inside a summarized folder")
		case src == nil:
			flag("source not found in scan")
		case src.Kind.Summarized():
			flag("source is a summarized folder")
		}

		if v.scan.SummarizedAncestor(action.Dest) != nil {
			flag("destination is inside a summarized folder")
		}
		if _, dup := destSeen[action.Dest]; dup {
			flag("destination collides with an earlier action")
		}
		if src != nil && src.Kind == NodeDir {
			if action.Dest == action.Source || strings.HasPrefix(action.Dest+"/", action.Source+"/") {
				flag("would move a directory into its own subtree")
			}
		}
		switch action.Kind {
		case ActionMove:
			if v.scan.Lookup(action.Dest) != nil {
				flag("destination already exists, use merge")
			}
		case ActionMerge:
			if !v.dirExists(action.Dest) {
				flag("merge destination is not an existing directory")
			}
		}

		if violated {
			continue
		}
		destSeen[action.Dest] = action
		if action.Kind == ActionMove {
			if reason := addMkdir(filepath.ToSlash(filepath.Dir(action.Dest)), "implied by move to "+action.Dest); reason != "" {
				flag(reason)
				continue
			}
		}
		rest = append(rest, action)
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	// Parents before children, then lexical for determinism.
	sort.SliceStable(mkdirs, func(i, j int) bool {
		di, dj := strings.Count(mkdirs[i].Dest, "/"), strings.Count(mkdirs[j].Dest, "/")
		if di != dj {
			return di < dj
		}
		return mkdirs[i].Dest < mkdirs[j].Dest
	})

	return &Plan{Actions: append(mkdirs, rest...)}, nil
}

// normalize cleans a plan path to slash-separated root-relative form.
// Absolute paths and paths escaping the root are rejected.
func (v *Validator) normalize(p string) (string, bool) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", false
	}
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(v.scan.RootPath, p)
		if err != nil {
			return "", false
		}
		p = rel
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", false
	}
	return p, true
}

// dirExists consults the scan first and falls back to the live
// filesystem for paths the scan skipped (ignored or hidden entries).
func (v *Validator) dirExists(rel string) bool {
	if rel == "." || rel == "/" {
		return true
	}
	if n := v.scan.Lookup(rel); n != nil {
		return n.Kind != NodeFile
	}
	info, err := os.Stat(filepath.Join(v.scan.RootPath, filepath.FromSlash(rel)))
	return err == nil && info.IsDir()
}
