package ext4

import (
	"encoding/binary"
	"testing"
)

func TestResolveIndirectBlockDirect(t *testing.T) {
	in := &inode{}
	in.block[0] = 10
	in.block[11] = 21

	read := func(uint64) ([]byte, error) { t.Fatal("no indirect reads expected for direct blocks"); return nil, nil }

	if got, err := resolveIndirectBlock(in, 0, 256, read); err != nil || got != 10 {
		t.Errorf("resolveIndirectBlock(0) = %d, %v; want 10, nil", got, err)
	}
	if got, err := resolveIndirectBlock(in, 11, 256, read); err != nil || got != 21 {
		t.Errorf("resolveIndirectBlock(11) = %d, %v; want 21, nil", got, err)
	}
}

func TestResolveIndirectBlockSparseHole(t *testing.T) {
	in := &inode{}
	// block[1] (direct) left at zero: a sparse hole.
	read := func(uint64) ([]byte, error) { t.Fatal("should not read an indirect block for a zero pointer"); return nil, nil }

	got, err := resolveIndirectBlock(in, 1, 256, read)
	if err != nil || got != 0 {
		t.Errorf("resolveIndirectBlock(1) = %d, %v; want 0, nil (sparse hole)", got, err)
	}
}

func TestResolveIndirectBlockSingleIndirect(t *testing.T) {
	const addrPerBlock = 4
	in := &inode{}
	in.block[singleIndirectBlockIdx] = 99

	indirectBlock := make([]byte, addrPerBlock*4)
	binary.LittleEndian.PutUint32(indirectBlock[4:8], 555) // word index 1

	read := func(blockNumber uint64) ([]byte, error) {
		if blockNumber != 99 {
			t.Fatalf("unexpected read of block %d", blockNumber)
		}
		return indirectBlock, nil
	}

	// lbi = 12 (direct count) + 1 -> single-indirect word index 1.
	got, err := resolveIndirectBlock(in, directBlockCount+1, addrPerBlock, read)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 555 {
		t.Errorf("resolveIndirectBlock = %d, want 555", got)
	}
}

func TestResolveIndirectBlockDoubleIndirectSparseMid(t *testing.T) {
	const addrPerBlock = 4
	in := &inode{}
	in.block[doubleIndirectBlockIdx] = 0 // entire double-indirect pointer is a hole

	read := func(uint64) ([]byte, error) { t.Fatal("a zero double-indirect pointer must never be read"); return nil, nil }

	lbi := uint64(directBlockCount) + addrPerBlock + 1
	got, err := resolveIndirectBlock(in, lbi, addrPerBlock, read)
	if err != nil || got != 0 {
		t.Errorf("resolveIndirectBlock = %d, %v; want 0, nil", got, err)
	}
}
