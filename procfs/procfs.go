// Package procfs implements the Proc emulator (spec.md §4.H): translation
// and detranslation for paths the engine recognizes as naming another
// tracee's /proc/<pid> tree, plus an open-file-descriptor lister and the
// live-/proc anchor reader (OSAnchorReader) the Translator uses to resolve
// cwd and dir_fd anchors (spec.md §4.F step 1).
//
// It builds on github.com/prometheus/procfs, the same /proc reader
// moby-moby and grafana-k6 pull in (transitively, for process and cgroup
// introspection) rather than hand-rolling /proc/<pid>/fd parsing.
package procfs

import (
	"strconv"
	"strings"

	procfsx "github.com/prometheus/procfs"

	"github.com/rootjail/ptracefs/binding"
	"github.com/rootjail/ptracefs/errno"
	"github.com/rootjail/ptracefs/path"
	"github.com/rootjail/ptracefs/rootfs"
)

// PidResolver maps a guest-visible pid to the pid namespace this module
// operates in. In the single-namespace model spec.md describes, this is
// the identity function; it is an interface so a future pid-namespace-aware
// supervisor can substitute its own mapping without changing Emulator.
type PidResolver interface {
	ToHostPid(guestPid int) (hostPid int, ok bool)
}

// IdentityPidResolver implements PidResolver for the common case where
// guest and host pid numbers coincide (spec.md §9 Non-goals: pid namespace
// virtualization is out of scope).
type IdentityPidResolver struct{}

func (IdentityPidResolver) ToHostPid(guestPid int) (int, bool) { return guestPid, true }

// Emulator implements the Proc emulator (spec.md §4.H): it recognizes
// "/proc/<pid>/..." and "/proc/self/..." guest paths and rewrites them to
// the corresponding host /proc entry for the matching tracee, so that a
// guest reading another process's /proc/<pid>/cwd or /proc/<pid>/fd/<n>
// sees host-relative information translated back into guest terms.
type Emulator struct {
	Pids PidResolver
}

// procEntry is a parsed "/proc/<X>/<rest>" guest path, where X is either a
// numeric pid or "self".
type procEntry struct {
	isSelf bool
	pid    int
	rest   string // everything after the pid/self component, without a leading slash
}

// parseProcPath recognizes guest paths of the form "/proc/<pid-or-self>" or
// "/proc/<pid-or-self>/<rest>". It returns ok=false for anything else,
// including the bare "/proc" directory, which the emulator does not
// special-case (spec.md §4.H: only per-pid entries are rewritten).
func parseProcPath(guestPath string) (procEntry, bool) {
	const prefix = "/proc/"
	if !strings.HasPrefix(guestPath, prefix) {
		return procEntry{}, false
	}
	tail := guestPath[len(prefix):]
	first, rest, _ := strings.Cut(tail, "/")
	if first == "" {
		return procEntry{}, false
	}
	if first == "self" {
		return procEntry{isSelf: true, rest: rest}, true
	}
	pid, err := strconv.Atoi(first)
	if err != nil || pid <= 0 {
		return procEntry{}, false
	}
	return procEntry{pid: pid, rest: rest}, true
}

// Translate implements the translation half of the Proc emulator: given a
// guest path already identified as a /proc/<pid>/... entry and the
// requesting tracee's own host pid (for "self"), it produces the
// corresponding host /proc path, unresolved any further (the caller
// canonicalizes and bind-substitutes downstream, spec.md §4.F step 4).
func (e Emulator) Translate(guestPath string, requesterHostPid int) (hostPath string, handled bool, kind errno.Kind) {
	entry, ok := parseProcPath(guestPath)
	if !ok {
		return "", false, 0
	}
	hostPid := requesterHostPid
	if !entry.isSelf {
		resolved, ok := e.Pids.ToHostPid(entry.pid)
		if !ok {
			return "", true, errno.NoEntry
		}
		hostPid = resolved
	}
	joined, kind := path.Join("/proc", strconv.Itoa(hostPid), entry.rest)
	if kind.Fail() {
		return "", true, kind
	}
	return joined, true, 0
}

// ReferrerIsProc reports whether referrer (the symlink path that produced
// a value needing detranslation) lies under /proc/<pid> for a numeric pid,
// the trigger condition for invoking the Proc emulator (spec.md §4.G step
// 2). This covers the entries spec.md §4.H names: cwd, root, exe and
// fd/<n> under /proc/<pid>. "/proc/self/..." and the bare "/proc" are not
// matched.
func ReferrerIsProc(referrer string) bool {
	const prefix = "/proc/"
	if !strings.HasPrefix(referrer, prefix) {
		return false
	}
	first, _, _ := strings.Cut(referrer[len(prefix):], "/")
	_, err := strconv.Atoi(first)
	return err == nil
}

// Detranslate implements the Proc emulator's detranslation half (spec.md
// §4.H): for a value whose referrer satisfies ReferrerIsProc, it detranslates
// the kernel-produced host path to guest form with binding follow-through
// always enabled and the rootfs sanity check always disabled (spec.md §4.G
// step 2). changed reports whether a rewrite was produced; when false, the
// caller falls through to generic detranslation (spec.md §4.H: "zero when
// no rewrite applies").
func (Emulator) Detranslate(bindings *binding.Table, rootHost, hostPath string) (guestPath string, changed bool, kind errno.Kind) {
	return rootfs.DetranslateGeneric(bindings, rootHost, hostPath, true, false)
}

// ListOpenFD lists the numeric file descriptors open in hostPid's process,
// as found under /proc/<pid>/fd. It is a thin wrapper over
// prometheus/procfs's own fd-table reader and only returns the numbers; it
// emits nothing per entry.
func ListOpenFD(hostPid int) ([]int, errno.Kind) {
	proc, err := procfsx.NewProc(hostPid)
	if err != nil {
		return nil, errno.FromSyscallErr(err)
	}
	fds, err := proc.FileDescriptors()
	if err != nil {
		return nil, errno.FromSyscallErr(err)
	}
	out := make([]int, len(fds))
	for i, fd := range fds {
		out[i] = int(fd)
	}
	return out, 0
}
