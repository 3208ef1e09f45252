// Package translate implements the Translator and Detranslator (spec.md
// §4.F, §4.G): the two public entry points the rest of the engine is built
// to serve. Translate turns a guest-relative syscall argument into a host
// path; Detranslate turns a host path a syscall handed back to the tracee
// (notably a readlink(2) target) back into guest form.
package translate

import (
	"os"
	"strconv"

	"github.com/rootjail/ptracefs/binding"
	"github.com/rootjail/ptracefs/errno"
	"github.com/rootjail/ptracefs/path"
	"github.com/rootjail/ptracefs/procfs"
	"github.com/rootjail/ptracefs/rootfs"
	"github.com/rootjail/ptracefs/tracee"
)

func tracerPid() int { return os.Getpid() }

// ATFDCWD mirrors the host's AT_FDCWD: "resolve dir_fd-relative lookups
// against the calling tracee's current working directory" (spec.md §4.F
// step 1).
const ATFDCWD = -100

// maxAnchorDepth bounds anchor resolution recursion (spec.md §9: "the
// recursion terminates because Proc-emulator outputs are never themselves
// under /proc/<pid> for live-kernel links... implementers should add an
// explicit depth guard anyway").
const maxAnchorDepth = 8

// AnchorReader resolves the two host link reads the Translator's anchor
// step needs (spec.md §4.F step 1): the tracee's cwd, and an open
// directory fd. It is the seam that lets translate be tested without a
// real /proc.
type AnchorReader interface {
	// ReadCwd returns the host path the tracee's /proc/<pid>/cwd link
	// resolves to.
	ReadCwd(pid int) (string, errno.Kind)
	// ReadFD returns the host path /proc/<pid>/fd/<fd> resolves to, and
	// whether that path names a directory.
	ReadFD(pid int, fd int) (hostPath string, isDir bool, kind errno.Kind)
}

// ProcEmulator is the subset of procfs.Emulator the Translator and
// Detranslator call through. Declaring it here (rather than importing
// *procfs.Emulator directly into every call site) keeps translate usable
// with a fake emulator in tests, per spec.md §9's hook-registry design
// note.
type ProcEmulator interface {
	Detranslate(bindings *binding.Table, rootHost, hostPath string) (guestPath string, changed bool, kind errno.Kind)
}

// Engine bundles everything the Translator and Detranslator need beyond a
// tracee.Context: the anchor reader, the Proc emulator, and the host
// filesystem the Canonicalizer consults. A nil FS defaults to
// rootfs.OSHostFS{}; tests inject internal/testfs's fake instead.
type Engine struct {
	Anchor AnchorReader
	Proc   ProcEmulator
	FS     rootfs.HostFS
}

func (e Engine) hostfs() rootfs.HostFS {
	if e.FS == nil {
		return rootfs.OSHostFS{}
	}
	return e.FS
}

// resolveAnchor implements spec.md §4.F step 1.
func (e Engine) resolveAnchor(ctx *tracee.Context, dirFD int, fakePath string) (string, errno.Kind) {
	if path.IsAbs(fakePath) {
		return "/", 0
	}

	pid := ctx.Pid
	if pid == 0 {
		// "the tracer's own pid when no tracee has yet started"
		// (spec.md §4.F step 1); the tracer is this process.
		pid = tracerPid()
	}

	var hostAnchor string
	if dirFD == ATFDCWD {
		cwd, kind := e.Anchor.ReadCwd(pid)
		if kind.Fail() {
			return "", kind
		}
		hostAnchor = cwd
	} else {
		target, isDir, kind := e.Anchor.ReadFD(pid, dirFD)
		if kind.Fail() {
			return "", kind
		}
		if !isDir {
			return "", errno.NotADirectory
		}
		hostAnchor = target
	}

	referrer := "/proc/" + strconv.Itoa(pid) + "/cwd"
	if dirFD != ATFDCWD {
		referrer = "/proc/" + strconv.Itoa(pid) + "/fd/" + strconv.Itoa(dirFD)
	}
	guestAnchor, _, kind := e.Detranslate(ctx, hostAnchor, referrer, 1)
	if kind.Fail() {
		return "", kind
	}
	return guestAnchor, 0
}

// Translate implements translate_path (spec.md §4.F). fakePath is the raw
// guest-relative syscall argument; dirFD is AT_FDCWD or an open directory
// fd; derefFinal says whether the final component, if a symlink, should be
// followed.
func (e Engine) Translate(ctx *tracee.Context, dirFD int, fakePath string, derefFinal bool) (hostPath string, kind errno.Kind) {
	anchor, kind := e.resolveAnchor(ctx, dirFD, fakePath)
	if kind.Fail() {
		return "", kind
	}

	result := anchor
	hookRC := ctx.InvokeHook(tracee.EventGuestPath, &result, fakePath)
	switch {
	case hookRC > 0:
		return result, 0
	case hookRC < 0:
		return "", errno.Kind(hookRC)
	}

	guestPath, kind := rootfs.Canonicalize(e.hostfs(), ctx.Bindings, ctx.RootHost, result, fakePath, derefFinal)
	if kind.Fail() {
		return "", kind
	}

	hostPath, kind = rootfs.ToHostPath(ctx.Bindings, ctx.RootHost, guestPath)
	if kind.Fail() {
		return "", kind
	}
	ctx.Logf("translate: %q (dir_fd=%d) -> %q", fakePath, dirFD, hostPath)
	return hostPath, 0
}

// Detranslate implements detranslate_path (spec.md §4.G). hostPath is a
// value a host syscall handed back to the tracee; referrer is the host
// path of the symlink that produced it, or "" when there is none (a
// "top-level" host path, sanity-checked against the guest rootfs).
// depth guards against runaway anchor recursion (spec.md §9); callers
// outside this package should pass 0.
func (e Engine) Detranslate(ctx *tracee.Context, hostPath, referrer string, depth int) (guestPath string, changed bool, kind errno.Kind) {
	if depth > maxAnchorDepth {
		return "", false, errno.TooManyLinks
	}
	if !path.IsAbs(hostPath) {
		return hostPath, false, 0
	}

	if referrer != "" && procfs.ReferrerIsProc(referrer) {
		if g, changed, kind := e.Proc.Detranslate(ctx.Bindings, ctx.RootHost, hostPath); changed || kind.Fail() {
			return g, changed, kind
		}
		// falls through to generic handling below
	}

	followBinding := true
	if referrer != "" && !rootfs.BelongsToGuestfs(ctx.RootHost, referrer) {
		followBinding = sameBinding(ctx.Bindings, hostPath, referrer)
	}

	sanityCheck := referrer == "" && !ctx.DisableSanityCheck
	g, changed, kind := rootfs.DetranslateGeneric(ctx.Bindings, ctx.RootHost, hostPath, followBinding, sanityCheck)
	if kind.Fail() {
		return "", false, kind
	}
	ctx.Logf("detranslate: %q (referrer=%q) -> %q", hostPath, referrer, g)
	return g, changed, 0
}

// sameBinding implements spec.md §4.G step 3: follow bindings only when
// both path and referrer resolve to the same binding.
func sameBinding(bindings *binding.Table, hostPath, referrer string) bool {
	_, b1, ok1 := bindings.Lookup(binding.Host, hostPath)
	_, b2, ok2 := bindings.Lookup(binding.Host, referrer)
	return ok1 && ok2 && b1 == b2
}
