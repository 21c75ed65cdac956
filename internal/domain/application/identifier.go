package application

import (
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const artifactSeparator = "-"

// IdentifierScheme maps between stored artifact names and the short
// correlation ids carried in chat callbacks.
type IdentifierScheme interface {
	NewArtifactName(now time.Time, originalFilename string) string
	CorrelationID(artifactName string) string
	OriginalFilename(artifactName string) string
	Resolve(correlationID string, records []Record) (Record, int, bool)
}

// TimestampPrefixScheme names artifacts "<unix millis>-<sanitized filename>".
// Two submissions within the same millisecond share a correlation id and
// Resolve returns whichever comes first in the slice.
type TimestampPrefixScheme struct{}

var _ IdentifierScheme = TimestampPrefixScheme{}

func (TimestampPrefixScheme) NewArtifactName(now time.Time, originalFilename string) string {
	return strconv.FormatInt(now.UTC().UnixMilli(), 10) + artifactSeparator + SanitizeFilename(originalFilename)
}

// CorrelationID returns the text before the first separator, or the whole
// name when there is none.
func (TimestampPrefixScheme) CorrelationID(artifactName string) string {
	id, _, found := strings.Cut(artifactName, artifactSeparator)
	if !found {
		return artifactName
	}
	return id
}

func (TimestampPrefixScheme) OriginalFilename(artifactName string) string {
	_, rest, found := strings.Cut(artifactName, artifactSeparator)
	if !found {
		return artifactName
	}
	return rest
}

// Resolve scans records in order. It is O(n) per lookup.
func (TimestampPrefixScheme) Resolve(correlationID string, records []Record) (Record, int, bool) {
	if correlationID == "" {
		return Record{}, -1, false
	}
	prefix := correlationID + artifactSeparator
	for i, record := range records {
		if strings.HasPrefix(record.ArtifactName, prefix) {
			return record, i, true
		}
	}
	return Record{}, -1, false
}

// SanitizeFilename reduces a client supplied filename to a safe base name
// made of ASCII letters, digits, '.', '_' and '-'. The extension survives
// even when the stem is stripped entirely.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	ext := path.Ext(name)
	stem := strings.TrimLeft(keepSafe(strings.TrimSuffix(name, ext)), "._")
	ext = keepSafe(ext)
	if ext == "." {
		ext = ""
	}
	if stem == "" {
		stem = "cv"
	}
	return stem + ext
}

func keepSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			continue
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
