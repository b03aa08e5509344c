package utils

import (
	"os"
	"path/filepath"
)

// PercentEncode encodes every non-alphanumeric byte of s as %XX. Used to
// derive flat, collision-free filenames from target URLs for spillover
// files and screenshot output.
func PercentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	buf := make([]byte, 0, len(s)*3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' {
			buf = append(buf, c)
		} else {
			buf = append(buf, '%', hex[c>>4], hex[c&0x0F])
		}
	}
	return string(buf)
}

// OutputPath joins a percent-encoded target URL plus extension onto base,
// creating the parent directory if needed. Directory creation failure is
// reported so callers can degrade gracefully.
func OutputPath(base, targetURL, ext string) (string, error) {
	p := filepath.Join(base, PercentEncode(targetURL)+ext)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return p, WrapErrorf(ErrFilesystem, "creating output dir for '%s': %v", p, err)
	}
	return p, nil
}
