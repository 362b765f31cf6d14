//go:build !windows

package doctor

import "syscall"

// freeSpace returns the free bytes on the filesystem holding path. An empty
// path means the current directory.
func freeSpace(path string) (int64, error) {
	if path == "" {
		path = "."
	}
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return -1, err
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}
