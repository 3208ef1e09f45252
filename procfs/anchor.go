package procfs

import (
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/rootjail/ptracefs/errno"
)

// OSAnchorReader implements translate.AnchorReader against a live /proc,
// the host interface spec.md §6 names: "/proc/<pid>/cwd, /proc/<pid>/fd/<n>,
// and /proc/<pid>/root".
type OSAnchorReader struct{}

func (OSAnchorReader) ReadCwd(pid int) (string, errno.Kind) {
	return readlinkProc("/proc/" + strconv.Itoa(pid) + "/cwd")
}

func (OSAnchorReader) ReadFD(pid, fd int) (string, bool, errno.Kind) {
	link := "/proc/" + strconv.Itoa(pid) + "/fd/" + strconv.Itoa(fd)
	target, kind := readlinkProc(link)
	if kind.Fail() {
		return "", false, kind
	}
	var st unix.Stat_t
	// spec.md §9: a failed stat here must be treated as NOT_A_DIRECTORY,
	// not as an uninitialized mode field (do not replicate the original's
	// latent bug).
	if err := unix.Stat(link, &st); err != nil {
		return "", false, errno.NotADirectory
	}
	return target, st.Mode&unix.S_IFMT == unix.S_IFDIR, 0
}

func readlinkProc(link string) (string, errno.Kind) {
	buf := make([]byte, 4096)
	n, err := unix.Readlink(link, buf)
	if err != nil {
		return "", errno.FromSyscallErr(err)
	}
	return string(buf[:n]), 0
}
