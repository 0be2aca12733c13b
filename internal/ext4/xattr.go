package ext4

import (
	"context"
	"encoding/binary"
	"strings"
)

const (
	xattrMagic uint32 = 0xEA020000

	xattrBlockHeaderSize = 32
	xattrIbodyHeaderSize = 4
	xattrEntryHeaderSize = 16

	selinuxAttrName    = "security.selinux"
	capabilityAttrName = "security.capability"
)

// xattrNamespacePrefix maps the on-disk name_index to its namespace prefix.
// Index 5 is reserved/unassigned upstream and decodes to an empty prefix
// rather than erroring (matching the historical reference implementation).
var xattrNamespacePrefix = map[byte]string{
	0: "",
	1: "user.",
	2: "system.posix_acl_access",
	3: "system.posix_acl_default",
	4: "trusted.",
	5: "",
	6: "security.",
	7: "system.",
	8: "system.richacl",
}

// aclNamespaces have no raw-name suffix appended: the full name is just the
// prefix literal.
var aclNamespaces = map[byte]bool{2: true, 3: true, 8: true}

// xattrEntry is one decoded extended-attribute record.
type xattrEntry struct {
	fullName string
	value    []byte
}

// xattrSet is the merged, queryable result of decoding an inode's inline and
// block extended attributes.
type xattrSet struct {
	entries []xattrEntry
}

func (s xattrSet) find(name string) ([]byte, bool) {
	for _, e := range s.entries {
		if e.fullName == name {
			return e.value, true
		}
	}
	return nil, false
}

// selinuxLabel extracts the SELinux context, stripping a single trailing NUL
// and lossily decoding the remainder as UTF-8.
func (s xattrSet) selinuxLabel() (string, bool) {
	v, ok := s.find(selinuxAttrName)
	if !ok || len(v) == 0 {
		return "", false
	}
	if v[len(v)-1] == 0 {
		v = v[:len(v)-1]
	}
	return string(v), true
}

// capability decodes a vfs_cap_data blob: magic_etc u32 followed by two
// {permitted,inheritable} u32 pairs; the 64-bit capability set is
// (permitted[1]<<32)|permitted[0]. A zero result means "no capabilities" and
// should be omitted from fs_config.
func (s xattrSet) capability() (uint64, bool) {
	v, ok := s.find(capabilityAttrName)
	if !ok || len(v) < 4+16 {
		return 0, false
	}
	permitted0 := binary.LittleEndian.Uint32(v[4:8])
	permitted1 := binary.LittleEndian.Uint32(v[12:16])
	caps := uint64(permitted1)<<32 | uint64(permitted0)
	if caps == 0 {
		return 0, false
	}
	return caps, true
}

// parseXattrEntries implements the shared entry loop of component E: data is
// the buffer holding entries (either the inode's inline trailer or a whole
// xattr block), entriesStart is where the first 16-byte header begins, and
// valueBase is what value_offs is measured from (4 for inline, 0 for block,
// per §4.E).
func parseXattrEntries(data []byte, entriesStart, valueBase int) ([]xattrEntry, error) {
	var out []xattrEntry
	pos := entriesStart

	for pos+xattrEntryHeaderSize <= len(data) {
		hdr := data[pos : pos+xattrEntryHeaderSize]
		nameLen := hdr[0]
		nameIndex := hdr[1]
		valueOffs := binary.LittleEndian.Uint16(hdr[2:4])
		valueInum := binary.LittleEndian.Uint32(hdr[4:8])
		valueSize := binary.LittleEndian.Uint32(hdr[8:12])

		if nameLen == 0 && nameIndex == 0 && valueOffs == 0 && valueInum == 0 {
			break // terminator
		}

		nameStart := pos + xattrEntryHeaderSize
		nameEnd := nameStart + int(nameLen)
		if nameEnd > len(data) {
			return out, errInvalidData(ContextXAttrEntry, "name out of bounds")
		}
		rawName := string(data[nameStart:nameEnd])

		prefix := xattrNamespacePrefix[nameIndex]
		var fullName string
		if aclNamespaces[nameIndex] {
			fullName = prefix
		} else {
			fullName = prefix + rawName
		}

		var value []byte
		if valueInum == 0 && valueSize > 0 {
			absOffset := int(valueOffs) + valueBase
			absEnd := absOffset + int(valueSize)
			if absOffset >= 0 && absEnd <= len(data) {
				value = data[absOffset:absEnd]
			}
		}

		out = append(out, xattrEntry{fullName: fullName, value: value})

		pos += alignUp4(xattrEntryHeaderSize + int(nameLen))
	}

	return out, nil
}

func alignUp4(n int) int {
	return (n + 3) &^ 3
}

// parseInlineXattrs decodes the ibody xattr trailer following an inode's
// fixed-size area (§4.E Inline). An inode with no inline xattr area (or an
// invalid magic) yields an empty set, not an error — inline xattrs are
// optional.
func parseInlineXattrs(area []byte) ([]xattrEntry, error) {
	if len(area) < xattrIbodyHeaderSize {
		return nil, nil
	}
	magic := binary.LittleEndian.Uint32(area[0:4])
	if magic != xattrMagic {
		return nil, nil
	}
	return parseXattrEntries(area, xattrIbodyHeaderSize, xattrIbodyHeaderSize)
}

// parseBlockXattrs decodes a whole external xattr block (§4.E Block). A
// missing or invalid block yields an empty set, per the decoder's
// tolerance requirement.
func parseBlockXattrs(block []byte) ([]xattrEntry, error) {
	if len(block) < xattrBlockHeaderSize {
		return nil, nil
	}
	magic := binary.LittleEndian.Uint32(block[0:4])
	if magic != xattrMagic {
		return nil, nil
	}
	return parseXattrEntries(block, xattrBlockHeaderSize, 0)
}

// ReadXattrs merges an inode's inline and external-block extended
// attributes, inline entries taking precedence on a name collision (the
// order the historical reference implementation collects them in). A
// missing or zero xattr block is tolerated and simply contributes nothing.
func (v *Volume) ReadXattrs(ctx context.Context, in *inode) (xattrSet, error) {
	var all []xattrEntry

	if area := in.inlineXattrArea(v.sb); area != nil {
		inline, err := parseInlineXattrs(area)
		if err != nil {
			return xattrSet{}, err
		}
		all = append(all, inline...)
	}

	if blockNum := in.xattrBlock(); blockNum != 0 {
		block, err := v.ReadBlock(ctx, blockNum)
		if err == nil {
			blockEntries, err := parseBlockXattrs(block)
			if err == nil {
				for _, e := range blockEntries {
					if _, exists := findXattr(all, e.fullName); !exists {
						all = append(all, e)
					}
				}
			}
		}
	}

	return xattrSet{entries: all}, nil
}

func findXattr(entries []xattrEntry, name string) (xattrEntry, bool) {
	for _, e := range entries {
		if e.fullName == name {
			return e, true
		}
	}
	return xattrEntry{}, false
}

// modeWithCaps renders the fs_config mode field: an octal permission string,
// optionally followed by " capabilities=0x<hex>".
func modeWithCaps(mode uint32, caps uint64, hasCaps bool) string {
	var b strings.Builder
	b.WriteString(octalMode(mode))
	if hasCaps {
		b.WriteString(" capabilities=0x")
		b.WriteString(hexUint64(caps))
	}
	return b.String()
}
