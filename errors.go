package dirorg

import (
	"fmt"
	"strings"
)

// ScanError reports a filesystem traversal failure: path not found,
// permission denied, or a symlink cycle.
type ScanError struct {
	Path string
	Op   string
	Err  error
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("scan %s %s", e.Op, e.Path)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ProviderError classifies failures of the external suggestion call.
type ProviderErrorKind string

const (
	ProviderNetwork   ProviderErrorKind = "network"
	ProviderAuth      ProviderErrorKind = "auth"
	ProviderTimeout   ProviderErrorKind = "timeout"
	ProviderRateLimit ProviderErrorKind = "rate-limit"
)

type ProviderError struct {
	Kind ProviderErrorKind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ProposalParseError means the provider answered but the answer could
// not be turned into a Plan. Raw keeps the full response for diagnostics;
// no partial plan ever escapes a parse failure.
type ProposalParseError struct {
	Raw string
	Err error
}

func (e *ProposalParseError) Error() string {
	return fmt.Sprintf("cannot parse proposal: %v", e.Err)
}

func (e *ProposalParseError) Unwrap() error { return e.Err }

// Violation is one safety check failure found while validating a plan.
type Violation struct {
	Action MoveAction
	Reason string
}

func (v Violation) String() string {
	switch v.Action.Kind {
	case ActionMkdir:
		return fmt.Sprintf("%s %s: %s", v.Action.Kind, v.Action.Dest, v.Reason)
	default:
		return fmt.Sprintf("%s %s -> %s: %s", v.Action.Kind, v.Action.Source, v.Action.Dest, v.Reason)
	}
}

// ValidationError carries every violation found in a plan so the user
// sees a single complete report instead of the first failure.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "plan rejected, %d violation(s):", len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  " + v.String())
	}
	return b.String()
}

// LogError means the change log could not be written. Always fatal:
// continuing without an audit trail is worse than stopping.
type LogError struct {
	Path string
	Err  error
}

func (e *LogError) Error() string {
	return fmt.Sprintf("change log %s: %v", e.Path, e.Err)
}

func (e *LogError) Unwrap() error { return e.Err }
