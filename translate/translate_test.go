package translate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rootjail/ptracefs/binding"
	"github.com/rootjail/ptracefs/errno"
	"github.com/rootjail/ptracefs/internal/testfs"
	"github.com/rootjail/ptracefs/tracee"
	"github.com/rootjail/ptracefs/translate"
)

// noopProc satisfies translate.ProcEmulator without ever rewriting, for
// tests that don't exercise /proc referrers.
type noopProc struct{}

func (noopProc) Detranslate(bindings *binding.Table, rootHost, hostPath string) (string, bool, errno.Kind) {
	return "", false, 0
}

func TestTranslateAbsoluteNoBinding(t *testing.T) {
	anchors := &testfs.AnchorFakes{Cwd: map[int]string{1: "/"}}
	fs := testfs.New(map[string]testfs.Node{"/jail/usr": {Dir: true}, "/jail/usr/bin": {Dir: true}})
	engine := translate.Engine{Anchor: anchors, Proc: noopProc{}, FS: fs}

	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: binding.NewTable()}

	out, kind := engine.Translate(ctx, translate.ATFDCWD, "/usr/bin/ls", true)
	require.False(t, kind.Fail())
	require.Equal(t, "/jail/usr/bin/ls", out, "spec.md §8 scenario 1: non-binding paths resolve under RootHost")
}

func TestTranslateViaBinding(t *testing.T) {
	anchors := &testfs.AnchorFakes{Cwd: map[int]string{1: "/"}}
	bindings := binding.NewTable()
	bindings.Insert(binding.Binding{Guest: "/cfg", Host: "/etc"})
	fs := testfs.New(map[string]testfs.Node{"/etc": {Dir: true}})
	engine := translate.Engine{Anchor: anchors, Proc: noopProc{}, FS: fs}

	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: bindings}

	out, kind := engine.Translate(ctx, translate.ATFDCWD, "/cfg/hosts", true)
	require.False(t, kind.Fail())
	require.Equal(t, "/etc/hosts", out)
}

func TestTranslateDotDotEscapeNeutralized(t *testing.T) {
	anchors := &testfs.AnchorFakes{Cwd: map[int]string{1: "/"}}
	fs := testfs.New(map[string]testfs.Node{"/jail/etc": {Dir: true}})
	engine := translate.Engine{Anchor: anchors, Proc: noopProc{}, FS: fs}

	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: binding.NewTable()}

	out, kind := engine.Translate(ctx, translate.ATFDCWD, "/../../etc/shadow", true)
	require.False(t, kind.Fail())
	require.Equal(t, "/jail/etc/shadow", out, "spec.md §8 scenario 3: escape neutralized, then rooted under RootHost")
}

func TestRoundTripTranslateDetranslateNoBinding(t *testing.T) {
	anchors := &testfs.AnchorFakes{Cwd: map[int]string{1: "/"}}
	fs := testfs.New(map[string]testfs.Node{"/jail/usr": {Dir: true}, "/jail/usr/bin": {Dir: true}})
	engine := translate.Engine{Anchor: anchors, Proc: noopProc{}, FS: fs}
	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: binding.NewTable()}

	host, kind := engine.Translate(ctx, translate.ATFDCWD, "/usr/bin/ls", true)
	require.False(t, kind.Fail())

	back, changed, kind := engine.Detranslate(ctx, host, "", 0)
	require.False(t, kind.Fail(), "detranslate(translate(p)) must not fail the rootfs sanity check")
	require.True(t, changed)
	require.Equal(t, "/usr/bin/ls", back)
}

func TestRoundTripTranslateDetranslateViaBinding(t *testing.T) {
	anchors := &testfs.AnchorFakes{Cwd: map[int]string{1: "/"}}
	bindings := binding.NewTable()
	bindings.Insert(binding.Binding{Guest: "/cfg", Host: "/etc"})
	fs := testfs.New(map[string]testfs.Node{"/etc": {Dir: true}})
	engine := translate.Engine{Anchor: anchors, Proc: noopProc{}, FS: fs}
	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: bindings}

	host, kind := engine.Translate(ctx, translate.ATFDCWD, "/cfg/hosts", true)
	require.False(t, kind.Fail())

	back, changed, kind := engine.Detranslate(ctx, host, "", 0)
	require.False(t, kind.Fail())
	require.True(t, changed)
	require.Equal(t, "/cfg/hosts", back)
}

func TestDetranslateSymlinkUnderBinding(t *testing.T) {
	bindings := binding.NewTable()
	bindings.Insert(binding.Binding{Guest: "/cfg", Host: "/etc"})
	engine := translate.Engine{Anchor: &testfs.AnchorFakes{}, Proc: noopProc{}}

	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: bindings}

	out, changed, kind := engine.Detranslate(ctx, "/etc/b", "/etc/a", 0)
	require.False(t, kind.Fail())
	require.True(t, changed)
	require.Equal(t, "/cfg/b", out)
}

func TestDetranslateTopLevelStripsRoot(t *testing.T) {
	engine := translate.Engine{Anchor: &testfs.AnchorFakes{}, Proc: noopProc{}}
	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: binding.NewTable()}

	out, changed, kind := engine.Detranslate(ctx, "/jail/home/u", "", 0)
	require.False(t, kind.Fail())
	require.True(t, changed)
	require.Equal(t, "/home/u", out)
}

func TestDetranslateRelativeUnchanged(t *testing.T) {
	engine := translate.Engine{Anchor: &testfs.AnchorFakes{}, Proc: noopProc{}}
	ctx := &tracee.Context{Pid: 1, RootHost: "/jail", Bindings: binding.NewTable()}

	out, changed, kind := engine.Detranslate(ctx, "relative/target", "/etc/a", 0)
	require.False(t, kind.Fail())
	require.False(t, changed)
	require.Equal(t, "relative/target", out)
}
