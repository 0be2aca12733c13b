package ext4

import (
	"encoding/binary"
	"testing"

	"github.com/ext4img/extractor/util"
)

func putDirEntry(b []byte, off int, inodeNum uint32, recLen uint16, fileType byte, name string) int {
	binary.LittleEndian.PutUint32(b[off:off+4], inodeNum)
	binary.LittleEndian.PutUint16(b[off+4:off+6], recLen)
	b[off+6] = byte(len(name))
	b[off+7] = fileType
	copy(b[off+8:], name)
	return off + int(recLen)
}

func TestDecodeDirectoryEntries(t *testing.T) {
	data := make([]byte, 64)
	off := putDirEntry(data, 0, 2, 12, 2, ".")
	off = putDirEntry(data, off, 2, 12, 2, "..")
	off = putDirEntry(data, off, 0, 12, 1, "deleted") // erased slot, inode == 0
	_ = putDirEntry(data, off, 11, 28, 1, "a.txt")

	entries, err := decodeDirectoryEntries(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []directoryEntry{
		{inode: 2, fileType: 2, name: "."},
		{inode: 2, fileType: 2, name: ".."},
		{inode: 11, fileType: 1, name: "a.txt"},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d\n%s", len(entries), len(want), util.DumpByteSlice(data, 16, true, true, false, nil))
	}
	for i, e := range entries {
		if e != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
		}
	}
}

func TestDecodeDirectoryEntriesStopsAtZeroRecLen(t *testing.T) {
	data := make([]byte, 32)
	putDirEntry(data, 0, 2, 0, 2, ".")

	entries, err := decodeDirectoryEntries(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries when rec_len is 0, got %d", len(entries))
	}
}

func TestDecodeDirectoryEntriesStopsAtOversizedRecLen(t *testing.T) {
	data := make([]byte, 16)
	// rec_len claims 1000 bytes but the buffer only holds 16.
	putDirEntry(data, 0, 2, 1000, 2, ".")

	entries, err := decodeDirectoryEntries(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected decoding to stop at the oversized record, got %d entries", len(entries))
	}
}

func TestDecodeDirectoryEntriesIdempotent(t *testing.T) {
	data := make([]byte, 32)
	off := putDirEntry(data, 0, 2, 12, 2, ".")
	_ = putDirEntry(data, off, 2, 20, 2, "..")

	first, err := decodeDirectoryEntries(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := decodeDirectoryEntries(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("decoding the same bytes twice produced different lengths: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs across decodes: %+v vs %+v", i, first[i], second[i])
		}
	}
}
