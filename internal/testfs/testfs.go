// Package testfs provides an in-memory fake implementing rootfs.HostFS and
// translate.AnchorReader, so the canonicalizer and translator can be
// exercised without a real directory tree or a live /proc — the same role
// the teacher's fstest.MapFS-backed fakes play for its own filesystem
// abstraction tests.
package testfs

import (
	"sort"
	"strings"

	"github.com/rootjail/ptracefs/errno"
	"github.com/rootjail/ptracefs/rootfs"
)

// Node describes one entry in the fake filesystem.
type Node struct {
	Dir    bool
	Link   string // symlink target, only meaningful when Link != ""
	Exists bool
}

// FS is a map-backed fake host filesystem, keyed by absolute host path.
// The zero value is empty; use New or populate Nodes directly.
type FS struct {
	Nodes map[string]Node
}

// New builds an FS from a map of path to Node, defaulting Exists to true
// for every entry (a caller wanting a non-existent path simply omits it).
func New(nodes map[string]Node) *FS {
	fs := &FS{Nodes: make(map[string]Node, len(nodes))}
	for p, n := range nodes {
		n.Exists = true
		fs.Nodes[p] = n
	}
	return fs
}

func (fs *FS) Lstat(path string) (rootfs.Info, errno.Kind) {
	n, ok := fs.Nodes[path]
	if !ok {
		return rootfs.Info{}, 0
	}
	return rootfs.Info{Exists: true, IsDir: n.Dir, IsLink: n.Link != ""}, 0
}

func (fs *FS) Readlink(path string) (string, errno.Kind) {
	n, ok := fs.Nodes[path]
	if !ok || n.Link == "" {
		return "", errno.NoEntry
	}
	return n.Link, 0
}

// Paths returns every path in the fake, sorted, for deterministic test
// assertions over directory contents.
func (fs *FS) Paths() []string {
	out := make([]string, 0, len(fs.Nodes))
	for p := range fs.Nodes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Under returns the paths directly or transitively nested under prefix,
// mirroring what foreach_fd's directory walk would observe.
func (fs *FS) Under(prefix string) []string {
	var out []string
	for _, p := range fs.Paths() {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

// AnchorFakes lets tests stub the Translator's anchor-resolution reads
// without a real /proc.
type AnchorFakes struct {
	Cwd map[int]string
	FD  map[int]map[int]FDEntry
}

// FDEntry is a fake /proc/<pid>/fd/<n> entry.
type FDEntry struct {
	HostPath string
	IsDir    bool
}

func (a *AnchorFakes) ReadCwd(pid int) (string, errno.Kind) {
	p, ok := a.Cwd[pid]
	if !ok {
		return "", errno.NoEntry
	}
	return p, 0
}

func (a *AnchorFakes) ReadFD(pid, fd int) (string, bool, errno.Kind) {
	byFD, ok := a.FD[pid]
	if !ok {
		return "", false, errno.NoEntry
	}
	entry, ok := byFD[fd]
	if !ok {
		return "", false, errno.NoEntry
	}
	return entry.HostPath, entry.IsDir, 0
}
