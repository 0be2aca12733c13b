package ext4

import "context"

// WalkItem is one entry yielded by the walker: its path from the walk root,
// file type, and computed Android attributes. The underlying inode is kept
// unexported; callers read its data or symlink target via the Volume methods
// below, which keeps the decoded inode representation private to this
// package.
type WalkItem struct {
	Path       string
	Type       FileType
	Attributes EntryAttributes

	inode *inode
}

// InodeNumber returns the on-disk inode number this item refers to.
func (w *WalkItem) InodeNumber() uint32 { return w.inode.number }

// frame is one level of the walker's explicit stack: a directory's path and
// its (remaining) entries, consumed from the end (§4.G Ordering).
type frame struct {
	path    string
	entries []directoryEntry
}

// Walker is the recursive walker (component G): a lazy, depth-first sequence
// of WalkItems. It is single-threaded and stateful; callers that want
// parallel extraction drain it fully into a slice first (§4.G, §5).
type Walker struct {
	v     *Volume
	stack []frame
}

// NewWalker starts a walker at the root inode.
func (v *Volume) NewWalker(ctx context.Context) (*Walker, error) {
	root, err := v.ReadRootInode(ctx)
	if err != nil {
		return nil, err
	}
	return v.newWalkerAt(ctx, "/", root)
}

// NewWalkerAt starts a walker at an arbitrary path, resolved via LookupPath.
func (v *Volume) NewWalkerAt(ctx context.Context, path string) (*Walker, error) {
	in, err := v.LookupPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if !in.isDirectory() {
		return nil, errNotADirectory(path)
	}
	return v.newWalkerAt(ctx, path, in)
}

func (v *Volume) newWalkerAt(ctx context.Context, path string, dir *inode) (*Walker, error) {
	entries, err := v.ReadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	return &Walker{
		v:     v,
		stack: []frame{{path: path, entries: entries}},
	}, nil
}

// Next advances the walker by one entry. It returns (nil, nil, false) when
// the walk is complete. A non-nil error represents a single failed entry
// (the inode could not be read, or its directory could not be decoded); the
// walker is still usable afterward — per §4.G and §7, a per-entry error never
// aborts traversal.
func (w *Walker) Next(ctx context.Context) (*WalkItem, error, bool) {
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]

		if len(top.entries) == 0 {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}

		// Pop from the end: entries are yielded in the reverse of their
		// on-disk order, a direct consequence of this pop-from-end discipline
		// (§4.G Ordering).
		entry := top.entries[len(top.entries)-1]
		top.entries = top.entries[:len(top.entries)-1]

		if entry.name == "." || entry.name == ".." {
			continue
		}

		itemPath := joinWalkPath(top.path, entry.name)

		in, err := w.v.ReadInode(ctx, entry.inode)
		if err != nil {
			return nil, err, true
		}

		if in.ftype == FileTypeUnknown {
			// Zero or unrecognized mode nibble: dropped from the walk result,
			// not fatal (§3 Mode invariants).
			continue
		}

		if in.isDirectory() {
			childEntries, err := w.v.ReadDirectory(ctx, in)
			if err != nil {
				return nil, err, true
			}
			w.stack = append(w.stack, frame{path: itemPath, entries: childEntries})
		}

		attrs, err := w.v.attributesForInode(ctx, in)
		if err != nil {
			return nil, err, true
		}

		return &WalkItem{
			Path:       itemPath,
			Type:       in.ftype,
			Attributes: attrs,
			inode:      in,
		}, nil, true
	}
	return nil, nil, false
}

// WalkAll drains the walker fully, collecting every yielded item and every
// per-entry error. Extraction drivers use this to materialize the sequence
// before fanning work out across a worker pool (§4.G, §5).
func (w *Walker) WalkAll(ctx context.Context) ([]*WalkItem, []error) {
	var items []*WalkItem
	var errs []error
	for {
		item, err, ok := w.Next(ctx)
		if !ok {
			break
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}
	return items, errs
}

func joinWalkPath(dir, name string) string {
	if dir == "/" {
		return "/" + name
	}
	return dir + "/" + name
}

// ReadFileData reads the full content of a regular-file or symlink WalkItem.
func (v *Volume) ReadFileData(ctx context.Context, item *WalkItem) ([]byte, error) {
	size := item.inode.size(v.sb)
	if size == 0 {
		return nil, nil
	}
	return ReadRange(ctx, v, item.inode, 0, size)
}

// ReadSymlinkTarget resolves a symlink WalkItem's target path, handling both
// the fast (inline) and slow (extent/indirect-backed) representations.
func (v *Volume) ReadSymlinkTarget(ctx context.Context, item *WalkItem) (string, error) {
	if item.Type != FileTypeSymlink {
		return "", errNotAFile(item.Path)
	}
	data, err := v.ReadFileData(ctx, item)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
