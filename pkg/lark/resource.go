package lark

import "strings"

// ExtractResourceID returns the opaque resource token of a platform URL: the
// last non-empty path segment once the query string and fragment are
// removed. Scheme and host never count as segments. It accepts anything,
// including bare tokens and malformed input, and returns "" when no segment
// is found.
//
// Examples:
//
//	https://example.feishu.cn/docx/AbC123?from=wiki  -> "AbC123"
//	https://example.feishu.cn/drive/folder/Fld9/     -> "Fld9"
//	https://example.feishu.cn/                       -> ""
//	AbC123                                           -> "AbC123"
func ExtractResourceID(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}

	// Drop "scheme://host" so a URL without a path yields nothing.
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
		slash := strings.IndexByte(s, '/')
		if slash < 0 {
			return ""
		}
		s = s[slash:]
	}

	segments := strings.Split(s, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}
