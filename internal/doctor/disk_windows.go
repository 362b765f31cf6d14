//go:build windows

package doctor

// freeSpace is not implemented on Windows; the disk-space check is skipped.
func freeSpace(string) (int64, error) {
	return -1, nil
}
