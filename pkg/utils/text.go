package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// StampLayout is the timestamp layout embedded in generated sitemap filenames.
const StampLayout = "20060102_150405"

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename removes invalid characters from a filename
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "_")

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, filename)

	// ".." survives the character filter
	cleaned = strings.ReplaceAll(cleaned, "..", "_")

	if len(cleaned) > 255 {
		cleaned = cleaned[:255]
	}

	return cleaned
}

// FormatCreationDate renders a filename timestamp relative to now:
// "Today at 15:04", "Yesterday", "3 days ago", or the plain date once it is
// a week old. Empty or malformed stamps render as "Unknown".
func FormatCreationDate(stamp string, now time.Time) string {
	if stamp == "" {
		return "Unknown"
	}
	created, err := time.ParseInLocation(StampLayout, stamp, now.Location())
	if err != nil {
		return "Unknown"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(day).Hours() / 24)

	switch {
	case days == 0:
		return "Today at " + created.Format("15:04")
	case days == 1:
		return "Yesterday"
	case days > 1 && days < 7:
		return fmt.Sprintf("%d days ago", days)
	default:
		return created.Format("2006-01-02")
	}
}

// StampFromFilename extracts the StampLayout timestamp from names like
// "sitemap_20240102_150405.xml.gz". It returns "" when none is present.
func StampFromFilename(name string) string {
	name = strings.TrimPrefix(name, "sitemap_")
	if len(name) < len(StampLayout) {
		return ""
	}
	stamp := name[:len(StampLayout)]
	if _, err := time.Parse(StampLayout, stamp); err != nil {
		return ""
	}
	return stamp
}
