package dirorg

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"
)

// DefaultProjectMarkers are filenames whose presence marks a directory
// as a software project to be summarized rather than reorganized.
var DefaultProjectMarkers = []string{
	"requirements.txt", "setup.py", "package.json", "cargo.toml",
	"makefile", "cmakelists.txt", ".git", ".gitignore", "readme.md",
	"pipfile", "poetry.lock", "build.gradle", "pom.xml", "gemfile",
	"composer.json", "package-lock.json", "yarn.lock", "go.mod",
	"dockerfile", "docker-compose.yml", ".travis.yml", "jenkinsfile",
	".gitlab-ci.yml", "tox.ini", "pytest.ini", ".eslintrc", "tsconfig.json",
}

// junkFiles are OS artifacts that never belong in a reorganization plan.
var junkFiles = map[string]bool{
	"$recycle.bin":              true,
	"desktop.ini":               true,
	"thumbs.db":                 true,
	"ntuser.dat":                true,
	"ntuser.ini":                true,
	"ntuser.pol":                true,
	"usrclass.dat":              true,
	"iconcache.db":              true,
	"pagefile.sys":              true,
	"hiberfil.sys":              true,
	"swapfile.sys":              true,
	"bootmgr":                   true,
	"bootnxt":                   true,
	"bootfont.bin":              true,
	"autorun.inf":               true,
	"system volume information": true,
}

type ScannerConfig struct {
	// LargeFolderThreshold collapses a non-root directory once its
	// descendant file count exceeds this value.
	LargeFolderThreshold int
	ProjectMarkers       []string
	Ignore               *ignore.GitIgnore
	Logger               *logrus.Logger
}

type Scanner struct {
	threshold int
	markers   map[string]bool
	ignore    *ignore.GitIgnore
	log       *logrus.Logger

	visited map[string]bool // canonical dir paths of the current walk
}

func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.LargeFolderThreshold <= 0 {
		cfg.LargeFolderThreshold = 30
	}
	markers := cfg.ProjectMarkers
	if len(markers) == 0 {
		markers = DefaultProjectMarkers
	}
	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		set[strings.ToLower(m)] = true
	}
	return &Scanner{
		threshold: cfg.LargeFolderThreshold,
		markers:   set,
		ignore:    cfg.Ignore,
		log:       cfg.Logger,
	}
}

// ScanResult holds the tree plus a flat index keyed by root-relative
// path. Children hidden by summarization are never indexed, which is
// what keeps them invisible to the provider and the validator.
type ScanResult struct {
	Root     *TreeNode
	RootPath string
	nodes    map[string]*TreeNode
}

// Lookup returns the node at the root-relative path, or nil if the path
// was not scanned or lives beneath a summarized node.
func (r *ScanResult) Lookup(rel string) *TreeNode {
	return r.nodes[filepath.ToSlash(filepath.Clean(rel))]
}

// Parent resolves a node's parent by path lookup.
func (r *ScanResult) Parent(n *TreeNode) *TreeNode {
	if n == nil || n.Rel == "." {
		return nil
	}
	return r.Lookup(filepath.Dir(n.Rel))
}

// SummarizedAncestor returns the closest summarized node on the path
// from the root to rel, or nil when rel is not buried inside one.
func (r *ScanResult) SummarizedAncestor(rel string) *TreeNode {
	rel = filepath.ToSlash(filepath.Clean(rel))
	for dir := rel; dir != "." && dir != "/"; dir = filepath.ToSlash(filepath.Dir(dir)) {
		if n := r.nodes[dir]; n != nil && n.Kind.Summarized() {
			return n
		}
	}
	return nil
}

// Scan walks root and returns its canonical tree description. Read-only:
// the filesystem is never touched.
func (s *Scanner) Scan(root string) (*ScanResult, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ScanError{Path: root, Op: "resolve", Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &ScanError{Path: abs, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Path: abs, Op: "stat", Err: fmt.Errorf("not a directory")}
	}

	// Fresh per walk, so a reused Scanner does not mistake a rescan of
	// the same root for a symlink cycle.
	s.visited = make(map[string]bool)

	node, err := s.scanDir(abs, ".", 0)
	if err != nil {
		return nil, err
	}

	res := &ScanResult{Root: node, RootPath: abs, nodes: make(map[string]*TreeNode)}
	index(res, node)
	return res, nil
}

func index(res *ScanResult, n *TreeNode) {
	res.nodes[filepath.ToSlash(n.Rel)] = n
	for _, c := range n.Children {
		index(res, c)
	}
}

func (s *Scanner) scanDir(path, rel string, depth int) (*TreeNode, error) {
	canon, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, &ScanError{Path: path, Op: "resolve", Err: err}
	}
	if s.visited[canon] {
		return nil, &ScanError{Path: path, Op: "symlink", Err: fmt.Errorf("cycle detected via %s", canon)}
	}
	s.visited[canon] = true

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, &ScanError{Path: path, Op: "read", Err: err}
	}

	node := &TreeNode{Path: path, Rel: rel, Kind: NodeDir, Depth: depth}

	if depth > 0 && s.isProject(entries) {
		count, size := aggregate(path)
		node.Kind = NodeProject
		node.FileCount = count
		node.Size = size
		s.log.Debugf("summarized project %s (%d files)", rel, count)
		return node, nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || junkFiles[strings.ToLower(name)] {
			continue
		}
		childRel := name
		if rel != "." {
			childRel = rel + "/" + name
		}
		if s.ignore != nil && s.ignore.MatchesPath(childRel) {
			continue
		}
		childPath := filepath.Join(path, name)

		if entry.IsDir() || s.isDirSymlink(entry, childPath) {
			child, err := s.scanDir(childPath, childRel, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
			node.Size += child.Size
			node.FileCount += child.FileCount
			continue
		}
		if !entry.Type().IsRegular() && entry.Type()&fs.ModeSymlink == 0 {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, &ScanError{Path: childPath, Op: "stat", Err: err}
		}
		node.Children = append(node.Children, &TreeNode{
			Path:  childPath,
			Rel:   childRel,
			Kind:  NodeFile,
			Size:  info.Size(),
			Depth: depth + 1,
		})
		node.Size += info.Size()
		node.FileCount++
	}

	sort.Slice(node.Children, func(i, j int) bool {
		return node.Children[i].Rel < node.Children[j].Rel
	})

	if depth > 0 && node.FileCount > s.threshold {
		s.log.Debugf("summarized large folder %s (%d files)", rel, node.FileCount)
		node.Kind = NodeLargeFolder
		node.Children = nil
	}
	return node, nil
}

func (s *Scanner) isProject(entries []fs.DirEntry) bool {
	for _, e := range entries {
		if s.markers[strings.ToLower(e.Name())] {
			return true
		}
		if e.IsDir() && e.Name() == "src" {
			return true
		}
	}
	return false
}

func (s *Scanner) isDirSymlink(entry fs.DirEntry, path string) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// aggregate counts files and bytes beneath a summarized directory.
// Errors inside the subtree are tolerated: the subtree is opaque anyway.
func aggregate(path string) (count int, size int64) {
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		count++
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	return count, size
}

// LoadIgnoreFile compiles the .gitignore at root when present.
func LoadIgnoreFile(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
