package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"regexp"
)

// filenameCleaner collapses runs of non-alphanumeric characters into "_".
var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// hashString returns a stable SHA1 hex digest of s.
func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// SafeFilenameFromURL derives a filesystem-safe name from a raw URL, e.g. for
// naming a probed pipeline file after the dataset it samples. The last path
// segment is preferred; when the URL cannot be parsed or yields nothing
// usable, the whole URL is hashed instead.
func SafeFilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return hashString(rawURL)
	}

	base := u.Path
	if i := lastSlash(base); i >= 0 {
		base = base[i+1:]
	}
	clean := filenameCleaner.ReplaceAllString(base, "_")
	clean = trimUnderscores(clean)
	if clean == "" {
		return hashString(rawURL)
	}
	return clean
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func trimUnderscores(s string) string {
	for len(s) > 0 && s[0] == '_' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '_' {
		s = s[:len(s)-1]
	}
	return s
}
