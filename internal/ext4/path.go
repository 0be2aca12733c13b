package ext4

import (
	"context"
	"strings"
)

// normalizePath implements the path resolver's normalization step: it
// rejects a leading ".." (which would escape the root), collapses "."
// components, and resolves ".." against what has been normalized so far,
// erroring if that would climb above the root. Grounded on the historical
// reference implementation's NormalizePath trait.
func normalizePath(p string) (string, error) {
	if p == "" {
		return "/", nil
	}

	isAbs := strings.HasPrefix(p, "/")
	parts := strings.Split(p, "/")

	var stack []string
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", errInvalidPath(p, "parent directory reference goes above root")
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, part)
		}
	}

	joined := strings.Join(stack, "/")
	if isAbs {
		return "/" + joined, nil
	}
	return joined, nil
}

// LookupPath implements the path resolver (component F): it normalizes path,
// then walks from the root inode (fixed number 2) component by component,
// requiring every intermediate component to be a directory.
func (v *Volume) LookupPath(ctx context.Context, path string) (*inode, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	current, err := v.ReadRootInode(ctx)
	if err != nil {
		return nil, err
	}
	if normalized == "/" {
		return current, nil
	}

	components := strings.Split(strings.Trim(normalized, "/"), "/")
	for _, component := range components {
		if !current.isDirectory() {
			return nil, errNotADirectory(normalized)
		}
		entries, err := v.ReadDirectory(ctx, current)
		if err != nil {
			return nil, err
		}
		entry, ok := findEntry(entries, component)
		if !ok {
			return nil, errPathNotFound(normalized, component)
		}
		current, err = v.ReadInode(ctx, entry.inode)
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}
