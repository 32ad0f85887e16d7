// Package sanitize normalizes raw catalog titles into filesystem-safe names.
//
// Titles scraped from the catalog arrive HTML-entity-encoded, often with
// server-injected UUID disambiguators, and may contain characters that are
// illegal on one or more target filesystems. Normalize maps any input to a
// non-empty, cross-platform-safe name and is idempotent: re-normalizing an
// already-normalized stem is a no-op.
package sanitize

import (
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// maxStemBytes is the longest stem emitted, well under every supported
	// filesystem's component limit.
	maxStemBytes = 200

	// maxEntityPasses bounds entity decoding so pathological double-encoded
	// input cannot loop.
	maxEntityPasses = 5
)

// Name is a normalized filename split into stem and extension.
// The stem contains no path separators, no control characters, and is never
// a reserved device name.
type Name struct {
	// Stem is the filename without extension. Never empty.
	Stem string
	// Ext is the extension without the leading dot, e.g. "mp3".
	Ext string
}

// Filename returns the full "stem.ext" form.
func (n Name) Filename() string {
	return n.Stem + "." + n.Ext
}

// DefaultExt is assumed when the raw title carries no recognizable
// audio extension.
const DefaultExt = "mp3"

// audioExts are the extensions recognized when splitting a raw title.
// Anything else after a dot is treated as part of the title ("Dr. Who").
var audioExts = map[string]struct{}{
	"mp3": {}, "wav": {}, "ogg": {}, "oga": {}, "m4a": {},
	"flac": {}, "aac": {}, "wma": {}, "opus": {}, "aiff": {}, "mp4": {},
}

// reservedNames is the Windows device namespace: files with these stems are
// unopenable on Windows regardless of extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

var (
	// uuidPattern matches 8-4-4-4-12 hex groups (optionally preceded by the
	// catalog's 6-digit disambiguator prefix) and bare 32-hex forms.
	// Candidates are confirmed with uuid.Parse before removal so ordinary
	// hex-looking words survive.
	uuidPattern = regexp.MustCompile(`(?i)(\d{6}-)?([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}|[0-9a-f]{32})`)

	illegalChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

	multiSpace  = regexp.MustCompile(`\s+`)
	multiHyphen = regexp.MustCompile(`-{2,}`)
	spacedDash  = regexp.MustCompile(`\s*-\s*`)
)

// separatorCutset are the characters trimmed from stem edges. Trailing dots
// and spaces are rejected by Windows; the rest are run-on separators.
const separatorCutset = " .-_"

// Normalize converts a raw catalog title into a safe Name. It is total:
// degenerate input falls back to a deterministic placeholder derived
// from index, the item's one-based position on its board, so the first
// untitled item becomes "Untitled 1".
func Normalize(raw string, index int) Name {
	s := decodeEntities(raw)
	s = stripUUIDs(s)

	stem, ext := splitExt(s)
	stem = illegalChars.ReplaceAllString(stem, "-")
	stem = controlChars.ReplaceAllString(stem, "")
	stem = normalizeSpacing(stem)
	stem = titleCaseIfUniform(stem)
	stem = truncateAtWord(stem, maxStemBytes)
	stem = strings.Trim(stem, separatorCutset)

	if _, reserved := reservedNames[strings.ToUpper(stem)]; reserved {
		stem += "_"
	}
	if stem == "" {
		stem = fmt.Sprintf("Untitled %d", index)
	}

	return Name{Stem: stem, Ext: ext}
}

// DirName maps a board identifier to a safe directory name. Unlike Normalize
// it preserves the identifier's casing so directories match what the catalog
// calls the board.
func DirName(boardID string) string {
	s := decodeEntities(boardID)
	s = illegalChars.ReplaceAllString(s, "-")
	s = controlChars.ReplaceAllString(s, "")
	s = strings.Trim(s, separatorCutset)
	if _, reserved := reservedNames[strings.ToUpper(s)]; reserved {
		s += "_"
	}
	if s == "" {
		return "board"
	}
	return s
}

// decodeEntities unescapes HTML entities until a fixed point, bounded by
// maxEntityPasses to guard against crafted re-encoding loops.
func decodeEntities(s string) string {
	for i := 0; i < maxEntityPasses; i++ {
		decoded := html.UnescapeString(s)
		if decoded == s {
			return s
		}
		s = decoded
	}
	return s
}

func stripUUIDs(s string) string {
	return uuidPattern.ReplaceAllStringFunc(s, func(m string) string {
		candidate := m
		if sub := uuidPattern.FindStringSubmatch(m); sub != nil {
			candidate = sub[2]
		}
		if _, err := uuid.Parse(candidate); err != nil {
			return m
		}
		return ""
	})
}

// splitExt separates a recognized audio extension from the title.
// Unrecognized suffixes stay in the stem so titles like "Dr. Who" keep
// their final word.
func splitExt(s string) (stem, ext string) {
	e := path.Ext(s)
	if e != "" {
		lower := strings.ToLower(strings.TrimPrefix(e, "."))
		if _, ok := audioExts[lower]; ok {
			return strings.TrimSuffix(s, e), lower
		}
	}
	return s, DefaultExt
}

// normalizeSpacing converts underscores to spaces, collapses whitespace and
// hyphen runs, standardizes hyphen spacing, and trims separator edges.
func normalizeSpacing(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = multiHyphen.ReplaceAllString(s, "-")
	s = multiSpace.ReplaceAllString(s, " ")
	s = spacedDash.ReplaceAllString(s, " - ")
	return strings.Trim(s, separatorCutset)
}

// titleCaseIfUniform title-cases stems whose letters are entirely lower or
// entirely upper case. Mixed-case input was cased by a human and is kept.
func titleCaseIfUniform(s string) string {
	var hasUpper, hasLower bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if hasUpper == hasLower {
		// Either no letters at all or a genuine mix.
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// truncateAtWord limits s to max bytes, preferring to cut at a space so
// words stay whole. Falls back to a rune-boundary cut for unbroken runs.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	truncated := s[:cut]
	if idx := strings.LastIndexByte(truncated, ' '); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated
}
