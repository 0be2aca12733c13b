package ext4

import "fmt"

// Context names the decoder or operation an error occurred in, for diagnostics.
type Context string

const (
	ContextSuperblock         Context = "superblock"
	ContextBlockGroupDesc     Context = "block group descriptor"
	ContextInode              Context = "inode"
	ContextExtentHeader       Context = "extent header"
	ContextExtentIndex        Context = "extent index"
	ContextExtent             Context = "extent"
	ContextXAttrHeader        Context = "xattr header"
	ContextXAttrIbodyHeader   Context = "xattr ibody header"
	ContextXAttrEntry         Context = "xattr entry"
	ContextCapability         Context = "capability"
	ContextDirectoryEntry     Context = "directory entry"
)

// Kind enumerates the error taxonomy callers can match on with errors.Is.
type Kind int

const (
	_ Kind = iota
	KindInvalidMagic
	KindInvalidData
	KindInvalidInode
	KindInvalidBlockGroup
	KindPathNotFound
	KindNotADirectory
	KindNotAFile
	KindInvalidPath
	KindInvalidUtf8InPath
	KindReadBeyondEof
	KindCorruptedDirectoryEntry
	KindIO
)

// Error is the single error type produced by this package. Kind lets callers
// do coarse-grained matching without parsing Error().
type Error struct {
	Kind    Kind
	Context Context
	Message string

	Inode     uint32
	Index     uint32
	Count     uint32
	Path      string
	Component string
	FileSize  uint64
	Offset    uint64

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidMagic:
		return fmt.Sprintf("invalid magic in %s", e.Context)
	case KindInvalidData:
		return fmt.Sprintf("invalid data in %s: %s", e.Context, e.Message)
	case KindInvalidInode:
		return fmt.Sprintf("invalid inode %d: %s", e.Inode, e.Message)
	case KindInvalidBlockGroup:
		return fmt.Sprintf("invalid block group %d (have %d)", e.Index, e.Count)
	case KindPathNotFound:
		return fmt.Sprintf("path not found: %s (missing component %q)", e.Path, e.Component)
	case KindNotADirectory:
		return fmt.Sprintf("not a directory: %s", e.Path)
	case KindNotAFile:
		return fmt.Sprintf("not a file: %s", e.Path)
	case KindInvalidPath:
		return fmt.Sprintf("invalid path %q: %s", e.Path, e.Message)
	case KindInvalidUtf8InPath:
		return fmt.Sprintf("invalid utf8 in path: %s", e.Path)
	case KindReadBeyondEof:
		return fmt.Sprintf("read beyond eof (file size %d, offset %d)", e.FileSize, e.Offset)
	case KindCorruptedDirectoryEntry:
		return fmt.Sprintf("corrupted directory entry at offset %d", e.Offset)
	case KindIO:
		return fmt.Sprintf("io error: %v", e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

func errInvalidMagic(ctx Context) error {
	return &Error{Kind: KindInvalidMagic, Context: ctx}
}

func errInvalidData(ctx Context, msg string) error {
	return &Error{Kind: KindInvalidData, Context: ctx, Message: msg}
}

func errInvalidInode(number uint32, reason string) error {
	return &Error{Kind: KindInvalidInode, Inode: number, Message: reason}
}

func errInvalidBlockGroup(index, count uint32) error {
	return &Error{Kind: KindInvalidBlockGroup, Index: index, Count: count}
}

func errPathNotFound(path, component string) error {
	return &Error{Kind: KindPathNotFound, Path: path, Component: component}
}

func errNotADirectory(path string) error {
	return &Error{Kind: KindNotADirectory, Path: path}
}

func errNotAFile(path string) error {
	return &Error{Kind: KindNotAFile, Path: path}
}

func errInvalidPath(path, reason string) error {
	return &Error{Kind: KindInvalidPath, Path: path, Message: reason}
}

func errReadBeyondEOF(fileSize, offset uint64) error {
	return &Error{Kind: KindReadBeyondEof, FileSize: fileSize, Offset: offset}
}

func errCorruptedDirectoryEntry(offset uint64) error {
	return &Error{Kind: KindCorruptedDirectoryEntry, Offset: offset}
}

func errIO(err error) error {
	return &Error{Kind: KindIO, Err: err}
}
