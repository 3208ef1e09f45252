// Package tracee holds the per-tracee data model (spec.md §3) shared by the
// rest of the engine: the tracee context, and the single extension hook
// point the Translator consults (spec.md §6).
//
// The teacher (tetratelabs/wazero) keeps its extension-like seams —
// api.Module, experimental contexts — as explicit values threaded through
// calls rather than package-level globals; Context and Hook follow the same
// pattern so callers can instantiate isolated engines for tests, per
// spec.md §9's design note on the hook registry.
package tracee

import (
	"github.com/sirupsen/logrus"

	"github.com/rootjail/ptracefs/binding"
)

// HookEvent identifies which extension point is firing. GUEST_PATH is the
// only one the core invokes (spec.md §6).
type HookEvent int

const (
	EventGuestPath HookEvent = iota
)

// Hook is the single interception point inside translate (spec.md §4.F
// step 3, §6). Invoke receives the in-progress result buffer (the guest
// anchor, to be overwritten in place with a host path on short-circuit) and
// the original fake_path.
//
// The return value follows spec.md's C-derived convention: positive means
// the hook already produced a host path in result and canonicalization
// should be skipped; negative is an errno.Kind to propagate; zero means
// "no-op, continue normally". Implementations that carry mutable state must
// be safe for concurrent use across tracee contexts (spec.md §5).
type Hook interface {
	Invoke(event HookEvent, result *string, fakePath string) int32
}

// NoopHook is a Hook that never short-circuits translation.
type NoopHook struct{}

func (NoopHook) Invoke(HookEvent, *string, string) int32 { return 0 }

// Context is the opaque per-tracee record of spec.md §3: a host pid (zero
// until the tracee first runs), the guest-rootfs host path, a shared
// binding table, and the extension hook set.
type Context struct {
	// Pid is the tracee's host process id, or zero if it has not yet run
	// (spec.md §3); callers resolving an anchor in that case use the
	// tracer's own pid (spec.md §4.F step 1).
	Pid int

	// RootHost is the absolute, canonical host path presenting as "/" to
	// the tracee (spec.md §3).
	RootHost string

	// Bindings is the shared, read-only-after-startup binding table
	// (spec.md §3, §5).
	Bindings *binding.Table

	// Hook is the extension hook set; nil is equivalent to NoopHook{}.
	Hook Hook

	// DisableSanityCheck turns off the guest-rootfs containment check
	// detranslate performs on referrer-less (top-level) host paths
	// (spec.md §4.G step 5). The zero value keeps the check enabled,
	// matching the default the supervisor relies on for safety.
	DisableSanityCheck bool

	// Logger receives advisory Debug-level entries from translate; a nil
	// Logger keeps the core silent (spec.md §7: "The
	// Translator never logs on error; the supervisor is responsible for
	// user-visible reporting").
	Logger *logrus.Entry
}

func (c *Context) hook() Hook {
	if c.Hook == nil {
		return NoopHook{}
	}
	return c.Hook
}

// InvokeHook runs the configured hook, defaulting to a no-op.
func (c *Context) InvokeHook(event HookEvent, result *string, fakePath string) int32 {
	return c.hook().Invoke(event, result, fakePath)
}

func (c *Context) logf(format string, args ...any) {
	if c.Logger == nil {
		return
	}
	c.Logger.Debugf(format, args...)
}

// Logf is exported for use by sibling packages (currently translate) that
// do not import logrus directly.
func (c *Context) Logf(format string, args ...any) {
	c.logf(format, args...)
}
