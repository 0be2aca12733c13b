package extract

import "strings"

// safePath replaces spaces with underscores. Images built from
// Windows-originated trees or OEM partitions occasionally carry space
// characters in paths that are awkward on some host filesystems and shells;
// the space-safe form is used consistently for the extracted tree and both
// sidecar files, and the original unsanitized path is never written anywhere
// (a supplement restored from the historical reference implementation's
// EntryPaths::new, absent from the distilled specification).
func safePath(p string) string {
	return strings.ReplaceAll(p, " ", "_")
}
