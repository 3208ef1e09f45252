package rootfs

import (
	"golang.org/x/sys/unix"

	"github.com/rootjail/ptracefs/errno"
)

// OSHostFS is the production HostFS, backed directly by the host kernel via
// golang.org/x/sys/unix — the same low-level syscall package the retrieval
// pack's container-facing tools (apptainer-apptainer, nestybox-sysbox-fs)
// use in preference to os.Lstat/os.Readlink, since unix.Lstat surfaces the
// raw syscall.Errno this module's errno package is built on without an
// extra os.PathError unwrap.
type OSHostFS struct{}

func (OSHostFS) Lstat(path string) (Info, errno.Kind) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if err == unix.ENOENT {
			return Info{}, 0
		}
		return Info{}, errno.FromSyscallErr(err)
	}
	mode := st.Mode
	return Info{
		Exists: true,
		IsDir:  mode&unix.S_IFMT == unix.S_IFDIR,
		IsLink: mode&unix.S_IFMT == unix.S_IFLNK,
	}, 0
}

func (OSHostFS) Readlink(path string) (string, errno.Kind) {
	buf := make([]byte, PathMaxGuess)
	n, err := unix.Readlink(path, buf)
	if err != nil {
		return "", errno.FromSyscallErr(err)
	}
	return string(buf[:n]), 0
}

// PathMaxGuess sizes the Readlink scratch buffer; symlink targets longer
// than this are rejected as NameTooLong-equivalent by the kernel itself
// before Readlink can return them.
const PathMaxGuess = 4096
