package ext4

import "encoding/binary"

const minGroupDescSize = 32

// blockGroupDescriptor is the decoded subset of a block group descriptor;
// only the inode table location is consulted on the read path (§4.B).
type blockGroupDescriptor struct {
	inodeTableFirstBlock uint64
}

// blockGroupDescriptorFromBytes decodes one descriptor record. size must be
// 32 or 64 (a size below 32 is the caller's responsibility to have already
// promoted to 32, per the specification).
func blockGroupDescriptorFromBytes(b []byte, size uint16) (*blockGroupDescriptor, error) {
	if len(b) < int(size) || len(b) < minGroupDescSize {
		return nil, errInvalidData(ContextBlockGroupDesc, "buffer too small")
	}

	lo := binary.LittleEndian.Uint32(b[0x8:0xc])
	var hi uint32
	if size >= 64 {
		hi = binary.LittleEndian.Uint32(b[0x28:0x2c])
	}

	return &blockGroupDescriptor{
		inodeTableFirstBlock: uint64(hi)<<32 | uint64(lo),
	}, nil
}
