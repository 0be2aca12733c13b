package ext4

import "testing"

func TestFileTypeFromMode(t *testing.T) {
	tests := []struct {
		mode uint16
		want FileType
	}{
		{fileTypeRegularFile | 0644, FileTypeRegular},
		{fileTypeDirectory | 0755, FileTypeDirectory},
		{fileTypeSymbolicLink | 0777, FileTypeSymlink},
		{fileTypeCharacterDevice | 0600, FileTypeCharDevice},
		{fileTypeBlockDevice | 0600, FileTypeBlockDevice},
		{fileTypeFIFO | 0600, FileTypeFIFO},
		{fileTypeSocket | 0600, FileTypeSocket},
		{0x0000 | 0644, FileTypeUnknown},
		{0x9000 | 0644, FileTypeUnknown}, // unrecognized nibble
	}
	for _, tt := range tests {
		if got := fileTypeFromMode(tt.mode); got != tt.want {
			t.Errorf("fileTypeFromMode(%#04x) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestInodeSizeHonorsDynamicRevisionAndRegularFileOnly(t *testing.T) {
	dynamic := &superblock{revLevel: 1}
	original := &superblock{revLevel: 0}

	regular := &inode{ftype: FileTypeRegular, sizeLo: 1, sizeHi: 1}
	if got := regular.size(dynamic); got != uint64(1)<<32|1 {
		t.Errorf("regular file size on dynamic rev = %#x, want size_hi:size_lo combined", got)
	}
	if got := regular.size(original); got != 1 {
		t.Errorf("regular file size on rev0 must ignore size_hi, got %d", got)
	}

	dir := &inode{ftype: FileTypeDirectory, sizeLo: 4096, sizeHi: 1}
	if got := dir.size(dynamic); got != 4096 {
		t.Errorf("directory size must never consult size_hi, got %d", got)
	}
}

func TestInodeUsesExtentsFlag(t *testing.T) {
	in := &inode{flags: inodeFlagExtents}
	if !in.usesExtents() {
		t.Error("expected usesExtents() to be true when the extents flag is set")
	}
	in2 := &inode{flags: 0}
	if in2.usesExtents() {
		t.Error("expected usesExtents() to be false when the extents flag is clear")
	}
}

func TestInlineXattrArea(t *testing.T) {
	sb := &superblock{inodeSize: 256}
	raw := make([]byte, 256)
	in := &inode{raw: raw, extraIsize: 32}

	area := in.inlineXattrArea(sb)
	if area == nil {
		t.Fatal("expected a non-nil inline xattr area")
	}
	if len(area) != 256-minInodeSize-32 {
		t.Errorf("inline xattr area length = %d, want %d", len(area), 256-minInodeSize-32)
	}

	noExtra := &inode{raw: raw, extraIsize: 0}
	if got := noExtra.inlineXattrArea(sb); got != nil {
		t.Errorf("expected nil inline xattr area when extra_isize is 0, got %v", got)
	}
}
