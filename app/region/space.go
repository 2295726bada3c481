package region

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// ErrNoSpace returned when the filesystem or the host memory can't hold the region
var ErrNoSpace = errors.New("not enough space for region")

// CheckSpace verifies the filesystem holding path has size bytes free. For memory backed filesystems
// the host must also have that much memory available. The nearest existing parent directory is checked
// if the directory of path doesn't exist yet.
func CheckSpace(path string, size int) error {
	dir := filepath.Dir(path)
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	usage, err := disk.Usage(dir)
	if err != nil {
		return fmt.Errorf("failed to get disk usage for %s: %w", dir, err)
	}
	need := uint64(max(size, 0)) //nolint:gosec // not negative
	if usage.Free < need {
		return fmt.Errorf("%w: %d bytes free on %s, need %d", ErrNoSpace, usage.Free, dir, need)
	}

	if usage.Fstype != "tmpfs" && usage.Fstype != "ramfs" {
		return nil
	}
	v, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("failed to get memory: %w", err)
	}
	if v.Available < need {
		return fmt.Errorf("%w: %d bytes of memory available, need %d", ErrNoSpace, v.Available, need)
	}
	return nil
}
