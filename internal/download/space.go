package download

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"podpull/internal/services"
)

// CheckStorage verifies the storage root exists, is writable, and has at
// least minFreeMiB of free space before a run starts downloads.
func CheckStorage(root string, minFreeMiB int) error {
	info, err := os.Stat(root)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "preflight", root, err)
	}
	if !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "download", "preflight",
			fmt.Sprintf("%s is not a directory", root), nil)
	}
	if err := unix.Access(root, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return services.Wrap(services.ErrConfiguration, "download", "preflight",
			fmt.Sprintf("insufficient permissions on %s", root), err)
	}

	if minFreeMiB <= 0 {
		return nil
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(root, &stat); err != nil {
		return services.Wrap(services.ErrTransient, "download", "preflight", root, err)
	}
	free := stat.Bavail * uint64(stat.Bsize)
	required := uint64(minFreeMiB) << 20
	if free < required {
		return services.Wrap(services.ErrDiskSpace, "download", "preflight",
			fmt.Sprintf("%s has %d MiB free, need %d MiB", root, free>>20, minFreeMiB), nil)
	}
	return nil
}
