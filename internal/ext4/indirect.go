package ext4

import "encoding/binary"

// directBlockCount is the number of direct block pointers in inode.block
// before the single/double/triple indirect pointers.
const (
	directBlockCount       = 12
	singleIndirectBlockIdx = 12
	doubleIndirectBlockIdx = 13
	tripleIndirectBlockIdx = 14
)

// resolveIndirectBlock maps logical block index lbi to a physical block
// number via the classic ext2/3/4 direct/single/double/triple indirect
// addressing scheme (§4.C resolve table). addrPerBlock is block_size/4, the
// number of 32-bit pointers that fit in one indirect block. A zero pointer at
// any level is a sparse hole and resolves to physical block 0.
func resolveIndirectBlock(in *inode, lbi uint64, addrPerBlock uint64, read blockReader) (uint64, error) {
	if lbi < directBlockCount {
		return uint64(in.block[lbi]), nil
	}
	lbi -= directBlockCount

	if lbi < addrPerBlock {
		return readIndirectWord(uint64(in.block[singleIndirectBlockIdx]), lbi, read)
	}
	lbi -= addrPerBlock

	if lbi < addrPerBlock*addrPerBlock {
		outer := lbi / addrPerBlock
		inner := lbi % addrPerBlock
		mid, err := readIndirectWord(uint64(in.block[doubleIndirectBlockIdx]), outer, read)
		if err != nil || mid == 0 {
			return 0, err
		}
		return readIndirectWord(mid, inner, read)
	}
	lbi -= addrPerBlock * addrPerBlock

	if lbi < addrPerBlock*addrPerBlock*addrPerBlock {
		outer := lbi / (addrPerBlock * addrPerBlock)
		rem := lbi % (addrPerBlock * addrPerBlock)
		mid := rem / addrPerBlock
		inner := rem % addrPerBlock

		l1, err := readIndirectWord(uint64(in.block[tripleIndirectBlockIdx]), outer, read)
		if err != nil || l1 == 0 {
			return 0, err
		}
		l2, err := readIndirectWord(l1, mid, read)
		if err != nil || l2 == 0 {
			return 0, err
		}
		return readIndirectWord(l2, inner, read)
	}

	return 0, errInvalidData(ContextInode, "logical block index exceeds triple-indirect range")
}

// readIndirectWord returns the physical block pointer stored at word index
// within the indirect block blockNum, or 0 (a hole) if blockNum itself is 0.
func readIndirectWord(blockNum uint64, index uint64, read blockReader) (uint64, error) {
	if blockNum == 0 {
		return 0, nil
	}
	b, err := read(blockNum)
	if err != nil {
		return 0, err
	}
	off := index * 4
	if off+4 > uint64(len(b)) {
		return 0, errInvalidData(ContextInode, "indirect block pointer out of bounds")
	}
	return uint64(binary.LittleEndian.Uint32(b[off : off+4])), nil
}
