package extract

import "fmt"

// fsConfigLine renders one fs_config line: "<path> <uid> <gid> <mode>".
func fsConfigLine(path string, uid, gid uint32, mode string) string {
	return fmt.Sprintf("%s %d %d %s", path, uid, gid, mode)
}

// fileContextsLine renders one file_contexts rule for a literal path.
func fileContextsLine(path, label string) string {
	return fmt.Sprintf("/%s %s", escapeRegex(trimLeadingSlash(path)), label)
}

// fileContextsDirLine renders the "(/.*)? " suffix rule directories also get,
// so everything beneath the directory inherits its label by default.
func fileContextsDirLine(path, label string) string {
	return fmt.Sprintf("/%s(/.*)? %s", escapeRegex(trimLeadingSlash(path)), label)
}

// sarFileContextsLines are the two fixed rules System-as-Root detection adds
// for the volume root itself.
func sarFileContextsLines(volumeLabel string) []string {
	root := "/" + safePath(volumeLabel)
	return []string{
		fileContextsLine(root, rootfsLabel),
		fileContextsDirLine(root, rootfsLabel),
	}
}

func trimLeadingSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}
