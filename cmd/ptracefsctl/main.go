// Command ptracefsctl is a small demonstration CLI over the path
// translation engine: given a guest rootfs and a set of "-b" binding
// specs, it translates or detranslates one path and prints the result,
// without ever attaching to a real tracee.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/rootjail/ptracefs/binding"
	"github.com/rootjail/ptracefs/procfs"
	"github.com/rootjail/ptracefs/tracee"
	"github.com/rootjail/ptracefs/translate"
)

type bindFlags []string

func (b *bindFlags) String() string     { return fmt.Sprint([]string(*b)) }
func (b *bindFlags) Set(s string) error { *b = append(*b, s); return nil }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ptracefsctl", flag.ContinueOnError)
	root := fs.String("root", "/", "guest rootfs, as a host path")
	detranslate := fs.Bool("detranslate", false, "detranslate a host path instead of translating a guest path")
	referrer := fs.String("referrer", "", "referrer host path, for -detranslate")
	derefFinal := fs.Bool("L", true, "dereference the final component if it is a symlink")
	verbose := fs.Bool("v", false, "log translation steps to stderr")
	var binds bindFlags
	fs.Var(&binds, "b", "bind mount, host[:guest]; may be repeated")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ptracefsctl [flags] <path>")
		return 2
	}

	bindings := binding.NewTable()
	for _, spec := range binds {
		b, err := binding.ParseSpec(spec)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ptracefsctl:", err)
			return 2
		}
		bindings.Insert(b)
	}

	ctx := &tracee.Context{
		Pid:      os.Getpid(),
		RootHost: *root,
		Bindings: bindings,
	}
	if *verbose {
		log := logrus.New()
		log.SetOutput(os.Stderr)
		ctx.Logger = logrus.NewEntry(log)
	}

	engine := translate.Engine{
		Anchor: procfs.OSAnchorReader{},
		Proc:   procfs.Emulator{Pids: procfs.IdentityPidResolver{}},
	}

	target := fs.Arg(0)
	if *detranslate {
		out, _, kind := engine.Detranslate(ctx, target, *referrer, 0)
		if kind.Fail() {
			fmt.Fprintln(os.Stderr, "ptracefsctl:", kind)
			return 1
		}
		fmt.Println(out)
		return 0
	}

	out, kind := engine.Translate(ctx, translate.ATFDCWD, target, *derefFinal)
	if kind.Fail() {
		fmt.Fprintln(os.Stderr, "ptracefsctl:", kind)
		return 1
	}
	fmt.Println(out)
	return 0
}
