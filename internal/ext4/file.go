package ext4

import "context"

// ReadRange implements the inode data reader (component C): it returns up to
// min(length, file_size-offset) bytes of an inode's logical data, branching
// on whether the inode uses extents or the legacy indirect-block map, and
// zero-filling any sparse region in either branch. Extent-tree and indirect
// blocks are fetched through Volume.ReadBlock; file data is read directly at
// computed offsets. ctx is checked once per extent (extents branch) or per
// logical block (indirect branch), so a canceled ctx interrupts a large read
// between those steps instead of running to completion (§4.B, §4.C).
func ReadRange(ctx context.Context, v *Volume, in *inode, offset, length uint64) ([]byte, error) {
	fileSize := in.size(v.sb)
	if offset >= fileSize {
		return nil, errReadBeyondEOF(fileSize, offset)
	}
	if length > fileSize-offset {
		length = fileSize - offset
	}

	if in.isSymlink() && fileSize < fastSymlinkMaxLen {
		return readFastSymlink(in, offset, length), nil
	}

	if in.usesExtents() {
		return readViaExtents(ctx, v, in, offset, length)
	}
	return readViaIndirect(ctx, v, in, offset, length)
}

// readFastSymlink treats the raw 60-byte block array as a byte sequence
// (never as 15 little-endian u32 words) per §4.C Symlinks.
func readFastSymlink(in *inode, offset, length uint64) []byte {
	raw := make([]byte, 60)
	for i := 0; i < 15; i++ {
		raw[i*4+0] = byte(in.block[i])
		raw[i*4+1] = byte(in.block[i] >> 8)
		raw[i*4+2] = byte(in.block[i] >> 16)
		raw[i*4+3] = byte(in.block[i] >> 24)
	}
	return raw[offset : offset+length]
}

func readViaExtents(ctx context.Context, v *Volume, in *inode, offset, length uint64) ([]byte, error) {
	blockSize := uint64(v.sb.blockSize())

	root := make([]byte, 60)
	for i := 0; i < 15; i++ {
		root[i*4+0] = byte(in.block[i])
		root[i*4+1] = byte(in.block[i] >> 8)
		root[i*4+2] = byte(in.block[i] >> 16)
		root[i*4+3] = byte(in.block[i] >> 24)
	}

	read := func(blockNumber uint64) ([]byte, error) {
		return v.ReadBlock(ctx, blockNumber)
	}

	leaves, err := parseExtentTree(root, read, v.sb.blocksCount())
	if err != nil {
		return nil, err
	}

	out := make([]byte, length)
	end := offset + length

	for i := range leaves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l := &leaves[i]
		extStart := uint64(l.firstBlock) * blockSize
		extLen := uint64(l.length) * blockSize
		extEnd := extStart + extLen

		if extEnd <= offset || extStart >= end {
			continue // no overlap with the requested range
		}

		readStart := max64(offset, extStart)
		readEnd := min64(end, extEnd)
		if readStart >= readEnd {
			continue
		}
		outOff := readStart - offset

		if l.unwritten {
			continue // out is already zero-initialized
		}

		intraOffset := readStart - extStart
		diskOffset := l.startBlock*blockSize + intraOffset
		chunk, err := v.readAt(diskOffset, readEnd-readStart)
		if err != nil {
			return nil, err
		}
		copy(out[outOff:], chunk)
	}
	return out, nil
}

func readViaIndirect(ctx context.Context, v *Volume, in *inode, offset, length uint64) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	blockSize := uint64(v.sb.blockSize())
	addrPerBlock := blockSize / 4

	startBlock := offset / blockSize
	endBlock := (offset + length - 1) / blockSize

	read := func(blockNumber uint64) ([]byte, error) {
		return v.ReadBlock(ctx, blockNumber)
	}

	out := make([]byte, length)
	written := uint64(0)

	for lbi := startBlock; lbi <= endBlock; lbi++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		physical, err := resolveIndirectBlock(in, lbi, addrPerBlock, read)
		if err != nil {
			return nil, err
		}

		blockLogicalStart := lbi * blockSize
		rangeStart := max64(offset, blockLogicalStart)
		rangeEnd := min64(offset+length, blockLogicalStart+blockSize)
		n := rangeEnd - rangeStart
		outOff := rangeStart - offset

		if physical == 0 {
			written += n
			continue // sparse hole, already zero
		}

		intraOffset := rangeStart - blockLogicalStart
		chunk, err := v.readAt(physical*blockSize+intraOffset, n)
		if err != nil {
			return nil, err
		}
		copy(out[outOff:], chunk)
		written += n
	}
	_ = written
	return out, nil
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
