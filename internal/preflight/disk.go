package preflight

import (
	"fmt"
	"os"
	"syscall"

	"github.com/Aman-CERP/wikimg/internal/errors"
	"github.com/Aman-CERP/wikimg/internal/profiling"
)

// MinDiskSpaceBytes is the free space below which a disk build is warned about (100MB).
const MinDiskSpaceBytes = 100 * 1024 * 1024

// CheckWritePermissions creates dir if needed and checks that files can be created in it.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:     "write_permissions",
		Details:  dir,
		Required: true,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		result.Err = errors.StorageError(fmt.Sprintf("cannot create index directory %s", dir), err)
		return result
	}

	f, err := os.CreateTemp(dir, ".wikimg-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		result.Err = errors.StorageError(fmt.Sprintf("index directory %s is not writable", dir), err)
		return result
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckDiskSpace checks the free space under path. Low space only warns: the
// index size depends on the dumps and the filter.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Details:  path,
		Required: false,
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)

	if availableBytes < MinDiskSpaceBytes {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s free (recommended: 100 MB)", profiling.FormatBytes(availableBytes))
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s free", profiling.FormatBytes(availableBytes))
	return result
}
