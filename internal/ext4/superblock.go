package ext4

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	// SuperblockOffset is the fixed byte offset of the superblock within the image.
	SuperblockOffset = 1024
	// SuperblockSize is the number of bytes occupied by the on-disk superblock record.
	SuperblockSize = 1024

	superblockMagic uint16 = 0xEF53

	minBlockSize = 1024

	featureIncompatExtents  uint32 = 0x0040
	featureIncompat64Bit    uint32 = 0x0080
	featureCompatHasJournal uint32 = 0x0004
)

// superblock is the decoded subset of the ext4 superblock: the fields this
// package needs downstream plus a few carried along for diagnostics; the rest
// of the record is not decoded. Per the specification's checksum non-goal,
// s_checksum is never validated.
type superblock struct {
	inodesCount       uint32
	blocksCountLo      uint32
	blocksCountHi      uint32
	firstDataBlock    uint32
	logBlockSize      uint32
	blocksPerGroup    uint32
	inodesPerGroup    uint32
	magic             uint16
	state             uint16
	revLevel          uint32
	firstIno          uint32
	inodeSize         uint16
	featureCompat     uint32
	featureIncompat   uint32
	featureROCompat   uint32
	uuid              uuid.UUID
	volumeName        string
	descSize          uint16
	minExtraIsize     uint16
	wantExtraIsize    uint16
	checksumSeed      uint32
}

func superblockFromBytes(b []byte) (*superblock, error) {
	if len(b) < SuperblockSize {
		return nil, errInvalidData(ContextSuperblock, "buffer too small")
	}

	magic := binary.LittleEndian.Uint16(b[0x38:0x3a])
	if magic != superblockMagic {
		return nil, errInvalidMagic(ContextSuperblock)
	}

	sb := &superblock{
		inodesCount:    binary.LittleEndian.Uint32(b[0x0:0x4]),
		blocksCountLo:  binary.LittleEndian.Uint32(b[0x4:0x8]),
		firstDataBlock: binary.LittleEndian.Uint32(b[0x14:0x18]),
		logBlockSize:   binary.LittleEndian.Uint32(b[0x18:0x1c]),
		blocksPerGroup: binary.LittleEndian.Uint32(b[0x20:0x24]),
		inodesPerGroup: binary.LittleEndian.Uint32(b[0x28:0x2c]),
		magic:          magic,
		state:          binary.LittleEndian.Uint16(b[0x3a:0x3c]),
		revLevel:       binary.LittleEndian.Uint32(b[0x4c:0x50]),
	}

	// Dynamic-revision fields. A rev-0 (original) filesystem never sets these,
	// and inodeSize/descSize fall back to their historical fixed defaults.
	sb.inodeSize = 128
	sb.descSize = 32
	if sb.revLevel >= 1 {
		sb.firstIno = binary.LittleEndian.Uint32(b[0x54:0x58])
		sb.inodeSize = binary.LittleEndian.Uint16(b[0x58:0x5a])
		sb.featureCompat = binary.LittleEndian.Uint32(b[0x5c:0x60])
		sb.featureIncompat = binary.LittleEndian.Uint32(b[0x60:0x64])
		sb.featureROCompat = binary.LittleEndian.Uint32(b[0x64:0x68])

		var idBytes [16]byte
		copy(idBytes[:], b[0x68:0x78])
		sb.uuid = uuid.UUID(idBytes)

		sb.volumeName = nullTerminatedString(b[0x78:0x88])

		if sb.featureIncompat&featureIncompat64Bit != 0 {
			descSize := binary.LittleEndian.Uint16(b[0xfe:0x100])
			if descSize < 32 {
				descSize = 32
			}
			sb.descSize = descSize
		}
	}
	if sb.inodeSize == 0 {
		sb.inodeSize = 128
	}

	if sb.featureIncompat&featureIncompat64Bit != 0 && len(b) >= 0x15c {
		sb.blocksCountHi = binary.LittleEndian.Uint32(b[0x150:0x154])
		sb.minExtraIsize = binary.LittleEndian.Uint16(b[0x15c:0x15e])
		sb.wantExtraIsize = binary.LittleEndian.Uint16(b[0x15e:0x160])
	}
	if len(b) >= 0x274 {
		sb.checksumSeed = binary.LittleEndian.Uint32(b[0x270:0x274])
	}

	return sb, nil
}

// blockSize is 1024 << log_block_size; the on-disk minimum is 1024.
func (sb *superblock) blockSize() uint32 {
	return minBlockSize << sb.logBlockSize
}

func (sb *superblock) blocksCount() uint64 {
	return uint64(sb.blocksCountHi)<<32 | uint64(sb.blocksCountLo)
}

func (sb *superblock) blockGroupCount() uint32 {
	if sb.blocksPerGroup == 0 {
		return 0
	}
	count := sb.blocksCount()
	bpg := uint64(sb.blocksPerGroup)
	groups := count / bpg
	if count%bpg != 0 {
		groups++
	}
	return uint32(groups)
}

func (sb *superblock) usesExtents() bool {
	return sb.featureIncompat&featureIncompatExtents != 0
}

func (sb *superblock) is64Bit() bool {
	return sb.featureIncompat&featureIncompat64Bit != 0
}

// isDynamicRevision reports whether this is a "dynamic" (rev >= 1) ext2/3/4
// filesystem, the revision in which i_size_high became a valid, independent
// field (unrelated to the 64BIT incompat feature, which instead governs
// block/inode counts beyond 2^32).
func (sb *superblock) isDynamicRevision() bool {
	return sb.revLevel >= 1
}

// firstGDTBlock is the block holding the group descriptor table: block 2 when
// the filesystem's block size is the historical minimum (1024), else block 1.
func (sb *superblock) firstGDTBlock() uint64 {
	if sb.blockSize() == minBlockSize {
		return 2
	}
	return 1
}

func nullTerminatedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
