package extract

import "strings"

// regexSpecial are the characters file_contexts regex lines must escape.
const regexSpecial = `\^$.|?*+(){}[]`

// escapeRegex backslash-escapes every regex metacharacter in s, the grammar
// file_contexts entries require for a literal path to be matched verbatim.
func escapeRegex(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(regexSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
