// Package errno defines the error-kind vocabulary the path translation
// engine uses end to end. Every fallible operation returns a Kind instead
// of an error, mirroring the teacher's habit (internal/fsapi.File) of
// constraining filesystem errors to a small, well-known enum instead of
// arbitrary wrapped errors.
package errno

import (
	"errors"
	"syscall"
)

// Kind is a negative integer matching a host errno value, or zero for
// success. Negative-int-as-errno is the wire contract the supervisor (the
// ptrace/seccomp layer, out of scope here) expects back from every core
// entry point.
type Kind int32

func kindOf(e syscall.Errno) Kind {
	return -Kind(e)
}

// The error kinds named by spec.md §7. Values are derived from the host's
// own errno numbers so Errno round-trips exactly.
var (
	NameTooLong      = kindOf(syscall.ENAMETOOLONG)
	NotADirectory    = kindOf(syscall.ENOTDIR)
	NoEntry          = kindOf(syscall.ENOENT)
	TooManyLinks     = kindOf(syscall.ELOOP)
	PermissionDenied = kindOf(syscall.EACCES)
	OperationFailed  = kindOf(syscall.EIO)
)

// Errno converts k back to the syscall.Errno it was derived from. Success
// (zero) converts to syscall.Errno(0).
func (k Kind) Errno() syscall.Errno {
	return syscall.Errno(-k)
}

// Error implements the error interface so a Kind can be used anywhere Go
// code expects one, e.g. when cmd/ptracefsctl prints a failed translation.
func (k Kind) Error() string {
	if k == 0 {
		return "success"
	}
	return k.Errno().Error()
}

// Fail reports whether k represents a failure. All spec.md error kinds are
// negative; zero is success.
func (k Kind) Fail() bool {
	return k != 0
}

// FromSyscallErr maps a host syscall error to a Kind. The errno values the
// core names (ENOENT, ENOTDIR, ENAMETOOLONG, ELOOP, EACCES/EPERM) map to
// their named kinds; any other syscall.Errno is surfaced as its own negated
// value; an error that carries no syscall.Errno becomes OperationFailed.
func FromSyscallErr(err error) Kind {
	if err == nil {
		return 0
	}
	var se syscall.Errno
	if errors.As(err, &se) {
		switch se {
		case syscall.ENOENT:
			return NoEntry
		case syscall.ENOTDIR:
			return NotADirectory
		case syscall.ENAMETOOLONG:
			return NameTooLong
		case syscall.ELOOP:
			return TooManyLinks
		case syscall.EACCES, syscall.EPERM:
			return PermissionDenied
		default:
			return kindOf(se)
		}
	}
	return OperationFailed
}
