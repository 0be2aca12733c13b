package extract

import (
	"encoding/binary"
	"os"
	"unicode/utf16"
)

// symlinkSentinelMagic is the literal prefix Android's own host extraction
// tools use to mark a plain file standing in for a symlink, followed by a
// UTF-16LE byte-order mark, the target path, and a UTF-16 NUL terminator.
const symlinkSentinelMagic = "!<symlink>\xff\xfe"

// writeSymlinkSentinel writes the sentinel file §4.H specifies for hosts
// that cannot create a real symbolic link at path.
func writeSymlinkSentinel(target, path string) error {
	units := utf16.Encode([]rune(target))
	buf := make([]byte, 0, len(symlinkSentinelMagic)+len(units)*2+2)
	buf = append(buf, symlinkSentinelMagic...)
	for _, u := range units {
		var pair [2]byte
		binary.LittleEndian.PutUint16(pair[:], u)
		buf = append(buf, pair[:]...)
	}
	buf = append(buf, 0, 0)
	return os.WriteFile(path, buf, 0644)
}
