package dirorg

import (
	"fmt"
	"os"
)

// CheckDirWritable verifies the root exists, is a directory, and that we
// can both list it and create entries in it, before anything else runs.
// The write probe is a created-and-removed temp file rather than a mode
// bit check, so ACLs and read-only mounts are caught too.
func CheckDirWritable(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &ScanError{Path: root, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return &ScanError{Path: root, Op: "stat", Err: fmt.Errorf("not a directory")}
	}

	if _, err := os.ReadDir(root); err != nil {
		return &ScanError{Path: root, Op: "read", Err: err}
	}

	probe, err := os.CreateTemp(root, ".dirorg-probe-*")
	if err != nil {
		return &ScanError{Path: root, Op: "write", Err: err}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}
