package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and grants the
// requested access bits (unix.R_OK, unix.W_OK, unix.X_OK).
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (access ok)", path)}
}

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem containing path.
func FreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckCapacity verifies the destination filesystem can absorb required bytes.
func CheckCapacity(destDir string, required uint64) Result {
	const name = "Destination capacity"
	free, err := FreeSpace(destDir)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if free < required {
		return Result{Name: name, Detail: fmt.Sprintf("need %d bytes, %d available", required, free)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d bytes free", free)}
}
