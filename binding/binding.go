// Package binding implements the Binding table (spec.md §4.D): an ordered
// set of (guest-prefix -> host-prefix) mappings supporting longest-prefix
// lookup from either side.
//
// Lookups are backed by github.com/hashicorp/go-immutable-radix, the same
// longest-prefix data structure HashiCorp uses for ACL and route-prefix
// matching in Consul/Vault — the nearest off-the-shelf fit for a mount
// table, and a dependency already present in the retrieval pack via
// nestybox-sysbox-fs, a ptrace/seccomp container filesystem virtualizer.
package binding

import (
	"fmt"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/rootjail/ptracefs/errno"
	"github.com/rootjail/ptracefs/path"
)

// Namespace selects which side of a Binding is the lookup key (spec.md
// §3).
type Namespace int

const (
	Guest Namespace = iota
	Host
)

// Binding is a pair of absolute canonical paths (spec.md §3).
type Binding struct {
	Guest string
	Host  string
}

func (b Binding) String() string {
	return fmt.Sprintf("%s:%s", b.Host, b.Guest)
}

// Status is the result of Table.Substitute (spec.md §4.D).
type Status int

const (
	NoMatch Status = iota
	Unchanged
	Substituted
)

// Table is the ordered set of bindings. The zero value is not usable; use
// NewTable. A Table is built once at start-up and is safe for concurrent
// read-only use thereafter (spec.md §5), matching the single-writer,
// many-reader lifecycle of the supervisor's own start-up phase.
type Table struct {
	byGuest *iradix.Tree
	byHost  *iradix.Tree
	order   []Binding
}

// NewTable returns an empty binding table.
func NewTable() *Table {
	return &Table{byGuest: iradix.New(), byHost: iradix.New()}
}

// Insert adds or replaces a binding. Per spec.md §3 invariant 4, a binding
// with a guest prefix identical to one already present replaces it in
// place; the radix tree's own Insert-overwrites-on-duplicate-key semantics
// give us this for free on the guest side, and the stale host-side entry is
// explicitly retired alongside it.
func (t *Table) Insert(b Binding) {
	replaced := false
	if old, ok := t.byGuest.Get([]byte(b.Guest)); ok {
		oldBinding := old.(Binding)
		htx := t.byHost.Txn()
		htx.Delete([]byte(oldBinding.Host))
		t.byHost = htx.Commit()
		for i, existing := range t.order {
			if existing.Guest == b.Guest {
				t.order[i] = b
				replaced = true
				break
			}
		}
	}
	if !replaced {
		t.order = append(t.order, b)
	}

	gtx := t.byGuest.Txn()
	gtx.Insert([]byte(b.Guest), b)
	t.byGuest = gtx.Commit()

	htx := t.byHost.Txn()
	htx.Insert([]byte(b.Host), b)
	t.byHost = htx.Commit()
}

// Bindings returns the bindings in insertion order (spec.md §3: "iteration
// in insertion order").
func (t *Table) Bindings() []Binding {
	out := make([]Binding, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) tree(ns Namespace) *iradix.Tree {
	if ns == Guest {
		return t.byGuest
	}
	return t.byHost
}

// find returns the longest binding whose ns-side is a prefix of p, honoring
// path-component boundaries: a radix longest-prefix hit that lands mid
// component (e.g. key "/etc" against input "/etcetera") is rejected and the
// search retries against a shorter candidate, the same boundary rule
// path.Compare enforces for "/foo" vs "/foobar" (spec.md §4.B rationale).
func (t *Table) find(ns Namespace, p string) (Binding, bool) {
	tree := t.tree(ns)
	key := p
	for key != "" {
		raw, v, ok := tree.Root().LongestPrefix([]byte(key))
		if !ok {
			return Binding{}, false
		}
		prefix := string(raw)
		switch path.Compare(p, prefix) {
		case path.Equal, path.Path2IsPrefix:
			return v.(Binding), true
		}
		cut := strings.LastIndexByte(key[:len(prefix)], '/')
		if cut <= 0 {
			return Binding{}, false
		}
		key = key[:cut]
	}
	return Binding{}, false
}

// Lookup implements get_path_binding (spec.md §4.D): it returns the other
// side of the longest binding whose ns-side is a prefix of path.
func (t *Table) Lookup(ns Namespace, p string) (other string, matched Binding, ok bool) {
	b, ok := t.find(ns, p)
	if !ok {
		return "", Binding{}, false
	}
	if ns == Guest {
		return b.Host, b, true
	}
	return b.Guest, b, true
}

// Substitute implements substitute_binding (spec.md §4.D): if a binding
// applies, it rewrites path by replacing the matched prefix with the
// binding's other side and reports Substituted, or Unchanged for a
// symmetric binding (the two sides are byte-identical). It reports NoMatch,
// leaving path untouched, when no binding applies.
func (t *Table) Substitute(ns Namespace, p string) (string, Status, errno.Kind) {
	b, ok := t.find(ns, p)
	if !ok {
		return p, NoMatch, 0
	}
	from, to := b.Guest, b.Host
	if ns == Host {
		from, to = b.Host, b.Guest
	}
	if from == to {
		return p, Unchanged, 0
	}
	rest := p[len(from):]
	joined, kind := path.Join(to, rest)
	if kind.Fail() {
		return "", NoMatch, kind
	}
	return joined, Substituted, 0
}

// String renders the table the way the teacher's CompositeFS.String does:
// a space-separated list of "host:guest" pairs in insertion order.
func (t *Table) String() string {
	parts := make([]string, len(t.order))
	for i, b := range t.order {
		parts[i] = b.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ParseSpec parses a PRoot-style "-b" bind spec of the form "host[:guest]"
// (spec.md §8 scenario 2 uses "-b /etc:/cfg"); when the guest side is
// omitted it defaults to the host side, i.e. a symmetric binding.
func ParseSpec(spec string) (Binding, error) {
	host, guest, found := strings.Cut(spec, ":")
	if !found {
		guest = host
	}
	if !path.IsAbs(host) || !path.IsAbs(guest) {
		return Binding{}, fmt.Errorf("binding: both sides must be absolute paths: %q", spec)
	}
	return Binding{Guest: guest, Host: host}, nil
}
