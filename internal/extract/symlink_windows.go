//go:build windows

package extract

import "os"

// createSymlink tries a native symlink first, since Windows does support
// them for privileged processes and Developer-Mode sessions. When that
// fails (the common case: no SeCreateSymbolicLinkPrivilege), it falls back
// to the sentinel file Android's own host tools recognize in its place
// (§4.H): "!<symlink>" followed by a UTF-16LE-encoded target and a NUL
// terminator.
func createSymlink(target, path string) error {
	if err := os.Symlink(target, path); err == nil {
		return nil
	}
	return writeSymlinkSentinel(target, path)
}
