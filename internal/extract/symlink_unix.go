//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package extract

import "golang.org/x/sys/unix"

// createSymlink creates a symlink at path pointing to target using the raw
// syscall, matching what extracted Android trees expect: a literal symlink
// entry, never resolved or rewritten.
func createSymlink(target, path string) error {
	return unix.Symlink(target, path)
}
