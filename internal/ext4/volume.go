// Package ext4 implements a read-only parser for raw ext4 disk images, the
// on-disk format Android packages its system partitions in.
package ext4

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ext4img/extractor/backend"
)

// Volume is the mounted, immutable view of one ext4 image (component B). It
// holds only the decoded superblock and a shared backend.Storage; every
// operation that needs bytes from the image reads them independently via
// io.ReaderAt, so a Volume can be used concurrently from many goroutines
// without a shared seek cursor — the key concurrency invariant of this
// package (SPEC_FULL.md §4.B, §9).
type Volume struct {
	storage backend.Storage
	sb      *superblock
}

// Open mounts an ext4 image backed by storage: it reads the fixed-offset
// superblock and decodes it. Any other error is non-fatal per this package's
// design; superblock decode failure is the only fatal error at startup.
func Open(storage backend.Storage) (*Volume, error) {
	buf := make([]byte, SuperblockSize)
	if _, err := storage.ReadAt(buf, SuperblockOffset); err != nil && err != io.EOF {
		return nil, errIO(err)
	}

	sb, err := superblockFromBytes(buf)
	if err != nil {
		return nil, err
	}

	return &Volume{storage: storage, sb: sb}, nil
}

// Name returns the superblock volume label, or "" if it was never set.
func (v *Volume) Name() string {
	return v.sb.volumeName
}

// UUID returns the filesystem's UUID, decoded from the superblock.
func (v *Volume) UUID() uuid.UUID {
	return v.sb.uuid
}

// BlockSize returns the image's block size in bytes.
func (v *Volume) BlockSize() uint32 {
	return v.sb.blockSize()
}

// SectionReader returns an independent, positioned byte stream over the
// underlying image, suitable for handing to one worker: callers never share
// a Seek cursor with one another or with the Volume itself.
func (v *Volume) SectionReader() *io.SectionReader {
	return io.NewSectionReader(v.storage, 0, 1<<62)
}

func (v *Volume) readAt(offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	n, err := v.storage.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, errIO(err)
	}
	return buf[:n], nil
}

func (v *Volume) readBlockRaw(blockNumber uint64) ([]byte, error) {
	return v.readAt(blockNumber*uint64(v.sb.blockSize()), uint64(v.sb.blockSize()))
}

// ReadBlock reads exactly one block_size-byte block.
func (v *Volume) ReadBlock(ctx context.Context, blockNumber uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.readBlockRaw(blockNumber)
}

// ReadBlockGroupDescriptor reads and decodes the descriptor for block group
// index.
func (v *Volume) ReadBlockGroupDescriptor(ctx context.Context, index uint32) (*blockGroupDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	count := v.sb.blockGroupCount()
	if index >= count {
		return nil, errInvalidBlockGroup(index, count)
	}

	offset := v.sb.firstGDTBlock()*uint64(v.sb.blockSize()) + uint64(index)*uint64(v.sb.descSize)
	buf, err := v.readAt(offset, uint64(v.sb.descSize))
	if err != nil {
		return nil, err
	}
	return blockGroupDescriptorFromBytes(buf, v.sb.descSize)
}

// ReadInode reads and decodes inode number n. Inode 0 is reserved.
func (v *Volume) ReadInode(ctx context.Context, n uint32) (*inode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errInvalidInode(0, "inode 0 is reserved and cannot be read")
	}

	group := (n - 1) / v.sb.inodesPerGroup
	indexInGroup := (n - 1) % v.sb.inodesPerGroup

	bgd, err := v.ReadBlockGroupDescriptor(ctx, group)
	if err != nil {
		return nil, err
	}

	offset := bgd.inodeTableFirstBlock*uint64(v.sb.blockSize()) + uint64(indexInGroup)*uint64(v.sb.inodeSize)
	buf, err := v.readAt(offset, uint64(v.sb.inodeSize))
	if err != nil {
		return nil, err
	}
	return inodeFromBytes(buf, v.sb, n)
}

// ReadRootInode reads the fixed root directory inode (number 2).
func (v *Volume) ReadRootInode(ctx context.Context) (*inode, error) {
	return v.ReadInode(ctx, rootInodeNumber)
}
