// Package rootfs implements the Canonicalizer (spec.md §4.E), the engine's
// workhorse: it resolves a guest path to an absolute, symlink-free guest
// path, bind-substituting during traversal so that symlinks crossing
// binding boundaries resolve the way the guest would see them.
//
// It also carries the generic (non-/proc-aware) half of detranslation
// (spec.md §4.G steps 3-5), shared by the Translator's anchor resolution
// and the Proc emulator, and the guest-rootfs membership test
// (belongs_to_guestfs, spec.md §6).
package rootfs

import (
	"strings"

	"github.com/rootjail/ptracefs/binding"
	"github.com/rootjail/ptracefs/errno"
	"github.com/rootjail/ptracefs/path"
)

// maxSymlinkDerefs bounds the number of symlink dereferences performed
// while resolving a single path (spec.md §4.E step 3: "suggested: 40").
const maxSymlinkDerefs = 40

// Info is what the canonicalizer needs to know about a host path: whether
// it exists, and if so whether it is a directory and/or a symbolic link.
type Info struct {
	Exists bool
	IsDir  bool
	IsLink bool
}

// HostFS abstracts the host filesystem operations the canonicalizer needs,
// so it can be exercised in tests without touching a real directory tree —
// the same seam the teacher draws with its fsapi.File interface.
type HostFS interface {
	Lstat(path string) (Info, errno.Kind)
	Readlink(path string) (target string, kind errno.Kind)
}

// Binder is the subset of binding.Table the canonicalizer needs; narrowing
// the dependency to an interface keeps rootfs testable without a live
// binding.Table.
type Binder interface {
	Substitute(ns binding.Namespace, p string) (string, binding.Status, errno.Kind)
}

// ToHostPath resolves a canonical guest path to the host path it actually
// names: the binding table's substitution when one applies (spec.md §3
// invariant: a binding's host side is already an absolute host location, not
// relative to the guest rootfs), or rootHost-prefixed otherwise (spec.md
// invariant 2/3: every guest path not covered by a binding lives under the
// tracee's root on the host).
func ToHostPath(bindings Binder, rootHost, guestPath string) (string, errno.Kind) {
	out, status, kind := bindings.Substitute(binding.Guest, guestPath)
	if kind.Fail() {
		return "", kind
	}
	if status != binding.NoMatch {
		return out, 0
	}
	return path.Join(rootHost, guestPath)
}

// Canonicalize implements the Canonicalizer (spec.md §4.E). base is an
// already-canonical absolute guest path (the anchor); remainder is the
// guest path text to resolve relative to it. derefFinal says whether the
// final component, if a symlink, should itself be followed. rootHost is the
// host path presenting as "/" to the tracee (spec.md §3): every intermediate
// component is materialized under it unless a binding says otherwise, so
// existence/symlink/directory checks run against the guest rootfs, not the
// bare host namespace.
func Canonicalize(hostfs HostFS, bindings Binder, rootHost, base, remainder string, derefFinal bool) (string, errno.Kind) {
	acc := normalizeBase(base)
	rest := remainder
	derefs := 0
	wantDir := false

	for path.HasMore([]byte(rest)) {
		name, next, finality, kind := path.NextComponent([]byte(rest), 0)
		if kind.Fail() {
			return "", kind
		}
		rest = rest[next:]
		isFinal := finality != path.NotFinal
		wantDir = finality == path.FinalSlash

		switch name {
		case ".":
			continue
		case "..":
			acc = popComponent(acc)
			continue
		}

		joined, kind := path.Join(acc, name)
		if kind.Fail() {
			return "", kind
		}
		acc = joined

		if isFinal && !derefFinal {
			continue
		}

		hostPath, kind := ToHostPath(bindings, rootHost, acc)
		if kind.Fail() {
			return "", kind
		}
		info, kind := hostfs.Lstat(hostPath)
		if kind.Fail() {
			return "", kind
		}

		switch {
		case !info.Exists:
			if !isFinal {
				return "", errno.NoEntry
			}
		case info.IsLink:
			derefs++
			if derefs > maxSymlinkDerefs {
				return "", errno.TooManyLinks
			}
			target, kind := hostfs.Readlink(hostPath)
			if kind.Fail() {
				return "", kind
			}
			if path.IsAbs(target) {
				acc = "/"
			} else {
				acc = popComponent(acc)
			}
			if rest == "" {
				rest = target
			} else {
				rest = target + "/" + rest
			}
		case !isFinal && !info.IsDir:
			return "", errno.NotADirectory
		}
	}

	if wantDir {
		hostPath, kind := ToHostPath(bindings, rootHost, acc)
		if kind.Fail() {
			return "", kind
		}
		info, kind := hostfs.Lstat(hostPath)
		if kind.Fail() {
			return "", kind
		}
		if !info.IsDir {
			return "", errno.NotADirectory
		}
	}
	return acc, 0
}

// BelongsToGuestfs implements belongs_to_guestfs (spec.md §6): is hostPath
// under the guest rootfs (as opposed to under a binding)?
func BelongsToGuestfs(rootHost, hostPath string) bool {
	switch path.Compare(hostPath, rootHost) {
	case path.Equal, path.Path2IsPrefix:
		return true
	default:
		return false
	}
}

// DetranslateGeneric implements the bind-substitute / root-strip half of
// detranslate_path (spec.md §4.G steps 3-5), without the /proc short-circuit
// of step 2. It is shared by translate.Detranslate (for ordinary referrers)
// and the Proc emulator (which always calls it with followBinding=true,
// per spec.md §4.G step 2).
func DetranslateGeneric(bindings *binding.Table, rootHost, hostPath string, followBinding, sanityCheck bool) (guestPath string, changed bool, kind errno.Kind) {
	if followBinding {
		out, status, kind := bindings.Substitute(binding.Host, hostPath)
		if kind.Fail() {
			return "", false, kind
		}
		switch status {
		case binding.Substituted:
			return out, true, 0
		case binding.Unchanged:
			return hostPath, false, 0
		}
		// NoMatch falls through to the rootfs-prefix check below.
	}

	switch path.Compare(hostPath, rootHost) {
	case path.Path2IsPrefix:
		if rootHost == "/" {
			return hostPath, false, 0
		}
		return hostPath[len(rootHost):], true, 0
	case path.Equal:
		return "/", hostPath != "/", 0
	default:
		if sanityCheck {
			return "", false, errno.PermissionDenied
		}
		return hostPath, false, 0
	}
}

func popComponent(acc string) string {
	if acc == "/" {
		return acc
	}
	idx := strings.LastIndexByte(acc, '/')
	if idx <= 0 {
		return "/"
	}
	return acc[:idx]
}

func normalizeBase(base string) string {
	if base == "" {
		return "/"
	}
	if len(base) > 1 && strings.HasSuffix(base, "/") {
		return strings.TrimRight(base, "/")
	}
	return base
}
