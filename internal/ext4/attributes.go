package ext4

import (
	"context"
	"fmt"
	"strconv"
)

// EntryAttributes is the object the extractor consumes (§3 Entry
// attributes): the Android-relevant metadata of one walked entry, computed
// once during the walk and immutable thereafter.
type EntryAttributes struct {
	Mode         uint32
	UID          uint32
	GID          uint32
	SELinux      string
	HasSELinux   bool
	Capabilities uint64
	HasCaps      bool
}

// ModeWithCaps renders the exact fs_config mode field: an octal permission
// string, optionally suffixed with " capabilities=0x<hex>".
func (a EntryAttributes) ModeWithCaps() string {
	return modeWithCaps(a.Mode, a.Capabilities, a.HasCaps)
}

// attributesForInode computes EntryAttributes by reading and merging an
// inode's extended attributes (component E, invoked by the walker per §4.G).
func (v *Volume) attributesForInode(ctx context.Context, in *inode) (EntryAttributes, error) {
	xattrs, err := v.ReadXattrs(ctx, in)
	if err != nil {
		return EntryAttributes{}, err
	}

	attrs := EntryAttributes{
		Mode: uint32(in.mode) & 0x0FFF,
		UID:  in.uid,
		GID:  in.gid,
	}
	if label, ok := xattrs.selinuxLabel(); ok {
		attrs.SELinux = label
		attrs.HasSELinux = true
	}
	if caps, ok := xattrs.capability(); ok {
		attrs.Capabilities = caps
		attrs.HasCaps = true
	}
	return attrs, nil
}

func octalMode(mode uint32) string {
	return fmt.Sprintf("%04o", mode)
}

func hexUint64(v uint64) string {
	return strconv.FormatUint(v, 16)
}
