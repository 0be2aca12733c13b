package ext4

import (
	"context"
	"encoding/binary"
)

const directoryEntryHeaderSize = 8

// dirEntryFileType mirrors the on-disk file_type byte stored alongside each
// directory entry; it is advisory (the authoritative type comes from the
// referenced inode's mode) and is carried through unused beyond that.
type dirEntryFileType uint8

// directoryEntry is one decoded record from a directory inode's data.
type directoryEntry struct {
	inode    uint32
	fileType dirEntryFileType
	name     string
}

// decodeDirectoryEntries implements the directory decoder (component D): it
// walks packed {inode,rec_len,name_len,file_type,name} records, skipping
// erased slots (inode==0), and stops at the first zero or oversized rec_len.
// Htree index blocks are never special-cased (SPEC_FULL.md §4.D): the hash
// tree root/internal nodes reuse otherwise-unused directory-entry slots, so
// this same linear decode is authoritative whether or not the directory is
// HTree-indexed.
func decodeDirectoryEntries(data []byte) ([]directoryEntry, error) {
	var entries []directoryEntry
	offset := 0

	for offset+directoryEntryHeaderSize <= len(data) {
		recLen := binary.LittleEndian.Uint16(data[offset+4 : offset+6])
		if recLen == 0 {
			break
		}
		remaining := len(data) - offset
		if int(recLen) > remaining {
			break
		}

		inodeNum := binary.LittleEndian.Uint32(data[offset : offset+4])
		nameLen := data[offset+6]
		fileType := dirEntryFileType(data[offset+7])

		if inodeNum != 0 {
			if int(nameLen) > 255 {
				nameLen = 255
			}
			nameStart := offset + directoryEntryHeaderSize
			nameEnd := nameStart + int(nameLen)
			if nameEnd > len(data) {
				return nil, errCorruptedDirectoryEntry(uint64(offset))
			}
			entries = append(entries, directoryEntry{
				inode:    inodeNum,
				fileType: fileType,
				name:     string(data[nameStart:nameEnd]),
			})
		}

		offset += int(recLen)
	}

	return entries, nil
}

// ReadDirectory reads a directory inode's full data and decodes its entries.
func (v *Volume) ReadDirectory(ctx context.Context, in *inode) ([]directoryEntry, error) {
	if !in.isDirectory() {
		return nil, errNotADirectory("")
	}
	size := in.size(v.sb)
	data, err := ReadRange(ctx, v, in, 0, size)
	if err != nil {
		return nil, err
	}
	return decodeDirectoryEntries(data)
}

// findEntry returns the entry named name among entries, or false if absent.
func findEntry(entries []directoryEntry, name string) (directoryEntry, bool) {
	for _, e := range entries {
		if e.name == name {
			return e, true
		}
	}
	return directoryEntry{}, false
}
