package playlog

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

const unknownFormat = "unknown"

var commentYearPattern = regexp.MustCompile(`(?:19|20)\d{2}`)

// ParseDuration converts "m:ss" or "h:mm:ss" into seconds.
// The second return value is false for anything else, including "0".
func ParseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	total := 0
	for _, part := range parts {
		n, ok := parseUnsigned(part)
		if !ok {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

func parseUnsigned(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FileFormat returns the lowercased extension of the path without its dot.
func FileFormat(p string) string {
	if p == "" {
		return unknownFormat
	}
	// Squeezebox logs may carry Windows paths or file:// URLs.
	p = strings.ReplaceAll(p, "\\", "/")
	ext := strings.TrimPrefix(path.Ext(p), ".")
	if ext == "" {
		return unknownFormat
	}
	return strings.ToLower(ext)
}

// CommentYear finds the first 19xx or 20xx substring in a comment.
func CommentYear(comment string) int {
	m := commentYearPattern.FindString(comment)
	if m == "" {
		return 0
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return year
}

// FormatDuration renders seconds as MM:SS, or H:MM:SS from one hour up.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
