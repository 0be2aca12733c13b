package ext4

import (
	"context"
	"testing"

	"github.com/ext4img/extractor/util"
)

// setFastSymlinkTarget packs target into an inode's 60-byte block array the
// way the on-disk fast-symlink representation does: raw bytes, not 15 LE u32
// words interpreted any other way.
func setFastSymlinkTarget(in *inode, target string) {
	var raw [60]byte
	copy(raw[:], target)
	for i := 0; i < 15; i++ {
		in.block[i] = uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
	}
}

func TestReadFastSymlinkRoundTrips(t *testing.T) {
	in := &inode{ftype: FileTypeSymlink}
	target := "/a.txt"
	setFastSymlinkTarget(in, target)

	got := readFastSymlink(in, 0, uint64(len(target)))
	if string(got) != target {
		diff, diffStr := util.DumpByteSlicesWithDiffs(got, []byte(target), 16, true, true, false)
		if diff {
			t.Fatalf("readFastSymlink mismatch (actual then expected):\n%s", diffStr)
		}
		t.Fatalf("readFastSymlink() = %q, want %q", got, target)
	}
}

func TestReadFastSymlinkPartialRange(t *testing.T) {
	in := &inode{ftype: FileTypeSymlink}
	setFastSymlinkTarget(in, "/system/bin/sh")

	got := readFastSymlink(in, 1, 6)
	if string(got) != "system" {
		t.Errorf("readFastSymlink(1, 6) = %q, want %q", got, "system")
	}
}

func TestReadRangeBeyondEof(t *testing.T) {
	sb := &superblock{logBlockSize: 2, revLevel: 1} // 4096-byte blocks
	v := &Volume{sb: sb}
	in := &inode{ftype: FileTypeRegular, sizeLo: 6}

	ctx := context.Background()
	if _, err := ReadRange(ctx, v, in, 6, 10); err == nil {
		t.Fatal("expected ReadBeyondEof when offset == file_size")
	}
	if _, err := ReadRange(ctx, v, in, 7, 10); err == nil {
		t.Fatal("expected ReadBeyondEof when offset > file_size")
	}
}
