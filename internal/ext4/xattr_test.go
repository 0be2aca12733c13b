package ext4

import (
	"encoding/binary"
	"testing"
)

// putXattrEntry writes one 16-byte xattr entry header plus its name at off,
// 4-byte aligned, and returns the offset of the next entry.
func putXattrEntry(b []byte, off int, nameIndex byte, name string, valueOffs uint16, valueSize uint32) int {
	b[off] = byte(len(name))
	b[off+1] = nameIndex
	binary.LittleEndian.PutUint16(b[off+2:off+4], valueOffs)
	binary.LittleEndian.PutUint32(b[off+4:off+8], 0) // value_inum
	binary.LittleEndian.PutUint32(b[off+8:off+12], valueSize)
	copy(b[off+16:], name)
	return off + alignUp4(16+len(name))
}

func TestParseInlineXattrsValueOffsetIsRelativeToFirstEntry(t *testing.T) {
	// Layout: [4-byte ibody magic][entry header + "x" name, ending at byte 21]
	// [value "hi" placed starting at byte 40, well clear of the name].
	area := make([]byte, 64)
	binary.LittleEndian.PutUint32(area[0:4], xattrMagic)

	// Per §4.E, value_offs for inline xattrs is measured from the first
	// entry (byte 4): to land the value at absolute offset 40, value_offs
	// must be 40-4 = 36.
	const absoluteValueOffset = 40
	putXattrEntry(area, xattrIbodyHeaderSize, 1, "x", absoluteValueOffset-xattrIbodyHeaderSize, 2)
	copy(area[absoluteValueOffset:], "hi")

	entries, err := parseInlineXattrs(area)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].fullName != "user.x" {
		t.Errorf("fullName = %q, want user.x", entries[0].fullName)
	}
	if string(entries[0].value) != "hi" {
		t.Errorf("value = %q, want %q", entries[0].value, "hi")
	}
}

func TestParseBlockXattrsValueOffsetIsRelativeToBlockStart(t *testing.T) {
	block := make([]byte, 128)
	binary.LittleEndian.PutUint32(block[0:4], xattrMagic)

	valueOffset := 96
	copy(block[valueOffset:], "hello")
	putXattrEntry(block, xattrBlockHeaderSize, 7, "y", uint16(valueOffset), 5)

	entries, err := parseBlockXattrs(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].fullName != "system.y" {
		t.Fatalf("got %+v, want a single system.y entry", entries)
	}
	if string(entries[0].value) != "hello" {
		t.Errorf("value = %q, want hello", entries[0].value)
	}
}

func TestXattrSetSelinuxLabelStripsTrailingNul(t *testing.T) {
	s := xattrSet{entries: []xattrEntry{
		{fullName: selinuxAttrName, value: []byte("u:object_r:system_file:s0\x00")},
	}}
	label, ok := s.selinuxLabel()
	if !ok {
		t.Fatal("expected a selinux label")
	}
	if label != "u:object_r:system_file:s0" {
		t.Errorf("label = %q", label)
	}
}

func TestXattrSetCapabilityCombinesPermittedHalves(t *testing.T) {
	value := make([]byte, 20)
	binary.LittleEndian.PutUint32(value[4:8], 0x2000)  // permitted[0]
	binary.LittleEndian.PutUint32(value[12:16], 0x1) // permitted[1]

	s := xattrSet{entries: []xattrEntry{{fullName: capabilityAttrName, value: value}}}
	caps, ok := s.capability()
	if !ok {
		t.Fatal("expected capabilities to be present")
	}
	want := uint64(0x1)<<32 | 0x2000
	if caps != want {
		t.Errorf("caps = %#x, want %#x", caps, want)
	}
}

func TestXattrSetCapabilityOmittedWhenZero(t *testing.T) {
	value := make([]byte, 20)
	s := xattrSet{entries: []xattrEntry{{fullName: capabilityAttrName, value: value}}}
	if _, ok := s.capability(); ok {
		t.Error("expected zero capabilities to be omitted")
	}
}

func TestXattrEntryTerminatorStopsDecoding(t *testing.T) {
	area := make([]byte, 64)
	binary.LittleEndian.PutUint32(area[0:4], xattrMagic)
	// The rest is already zero: an all-zero entry header is the terminator.

	entries, err := parseInlineXattrs(area)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries past the terminator, got %d", len(entries))
	}
}

func TestAclNamespaceHasNoSuffix(t *testing.T) {
	area := make([]byte, 64)
	binary.LittleEndian.PutUint32(area[0:4], xattrMagic)
	putXattrEntry(area, xattrIbodyHeaderSize, 2, "ignored", 0, 0)

	entries, err := parseInlineXattrs(area)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].fullName != "system.posix_acl_access" {
		t.Fatalf("got %+v, want bare ACL namespace prefix", entries)
	}
}
