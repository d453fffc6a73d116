// Package normalize provides utilities for normalizing and sanitizing data.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

//nolint:gochecknoglobals // Unicode case folder is safe for concurrent use
var folder = cases.Fold()

// SearchKey lowers a display string into the form stored in search
// indexes: Unicode case-folded, trimmed, with internal whitespace
// collapsed to single spaces. Prefix matching against these keys is
// what makes "ann" find both "Anna" and "Änne".
func SearchKey(raw string) string {
	s := strings.TrimSpace(sanitizeString(raw))
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(folder.String(s)), " ")
}

// iso639_2to1 maps ISO 639-2 (3-letter) codes to ISO 639-1 (2-letter) codes.
// Open Library reports languages as 639-2 keys ("/languages/eng").
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var iso639_2to1 = map[string]string{
	"eng": "en", "spa": "es", "fra": "fr", "deu": "de", "ita": "it",
	"por": "pt", "nld": "nl", "rus": "ru", "jpn": "ja", "zho": "zh",
	"kor": "ko", "ara": "ar", "hin": "hi", "pol": "pl", "swe": "sv",
	"nor": "no", "dan": "da", "fin": "fi", "tur": "tr", "ell": "el",
	"heb": "he", "ces": "cs", "hun": "hu", "ron": "ro", "tha": "th",
	"vie": "vi", "ind": "id", "ukr": "uk", "cat": "ca", "hrv": "hr",
	// Bibliographic variants
	"ger": "de", "fre": "fr", "dut": "nl", "chi": "zh", "cze": "cs",
	"gre": "el", "rum": "ro",
}

// languageNameToCode maps common language names to ISO 639-1 codes.
//
//nolint:gochecknoglobals // Static lookup table for language normalization
var languageNameToCode = map[string]string{
	"english": "en", "spanish": "es", "french": "fr", "german": "de",
	"italian": "it", "portuguese": "pt", "dutch": "nl", "russian": "ru",
	"japanese": "ja", "chinese": "zh", "korean": "ko", "arabic": "ar",
	"hindi": "hi", "polish": "pl", "swedish": "sv", "norwegian": "no",
	"danish": "da", "finnish": "fi", "turkish": "tr", "greek": "el",
	"hebrew": "he", "czech": "cs", "hungarian": "hu", "romanian": "ro",
	"thai": "th", "vietnamese": "vi", "indonesian": "id", "ukrainian": "uk",
	"catalan": "ca", "croatian": "hr",
}

// LanguageCode converts various language representations to ISO 639-1 codes.
// It handles:
//   - ISO 639-1 codes: "en" -> "en"
//   - ISO 639-2 codes: "eng" -> "en"
//   - Open Library language refs: "/languages/eng" -> "en"
//   - Locale codes: "en-US", "en_GB" -> "en"
//   - Language names: "English", "ENGLISH" -> "en"
//
// Returns empty string for unrecognized values.
func LanguageCode(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(sanitizeString(raw)))
	s = strings.TrimPrefix(s, "/languages/")
	if s == "" {
		return ""
	}

	// Locale codes (e.g., "en-US", "en_GB"): keep the language part.
	if idx := strings.IndexAny(s, "-_"); idx > 0 {
		s = s[:idx]
	}

	if len(s) == 2 {
		return s
	}
	if len(s) == 3 {
		if code, ok := iso639_2to1[s]; ok {
			return code
		}
	}
	if code, ok := languageNameToCode[s]; ok {
		return code
	}
	return ""
}

// sanitizeString removes null bytes from strings, which can cause
// issues in databases and JSON parsing. Some upstream catalogs include
// null terminators in strings.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 { // null byte
			return -1 // drop it
		}
		return r
	}, s)
}
