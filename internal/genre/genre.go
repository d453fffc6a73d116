// Package genre normalizes genre labels from external catalogs.
//
// Providers disagree wildly about genre naming: Google Books returns
// BISAC-style paths like "Fiction / Science Fiction", Open Library
// returns free-form subjects like "sci-fi" or "American fiction".
// Canonical folds these variants into one display label per genre so
// library filters and statistics group correctly.
package genre

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// canonicalLabels maps slugified genre variants to display labels.
var canonicalLabels = map[string]string{
	// Science fiction variants.
	"science-fiction":         "Science Fiction",
	"sci-fi":                  "Science Fiction",
	"scifi":                   "Science Fiction",
	"sf":                      "Science Fiction",
	"speculative-fiction":     "Science Fiction",
	"science-fiction-fantasy": "Science Fiction",

	// Fantasy variants.
	"fantasy":           "Fantasy",
	"epic-fantasy":      "Fantasy",
	"high-fantasy":      "Fantasy",
	"sword-and-sorcery": "Fantasy",
	"urban-fantasy":     "Fantasy",

	// Mystery and thriller variants.
	"mystery":           "Mystery",
	"detective":         "Mystery",
	"crime":             "Mystery",
	"detective-fiction": "Mystery",
	"thriller":          "Thriller",
	"suspense":          "Thriller",
	"mystery-thriller":  "Thriller",

	// Romance variants.
	"romance":              "Romance",
	"love-stories":         "Romance",
	"contemporary-romance": "Romance",
	"paranormal-romance":   "Romance",

	// Horror variants.
	"horror":         "Horror",
	"ghost-stories":  "Horror",
	"horror-fiction": "Horror",

	// Historical fiction variants.
	"historical":         "Historical Fiction",
	"historical-fiction": "Historical Fiction",

	// Young readers. Google Books files children's books under "Juvenile".
	"young-adult":         "Young Adult",
	"ya":                  "Young Adult",
	"teen":                "Young Adult",
	"young-adult-fiction": "Young Adult",
	"juvenile-fiction":    "Children's",
	"juvenile-nonfiction": "Children's",
	"children-s-fiction":  "Children's",
	"children-s-books":    "Children's",
	"picture-books":       "Children's",

	// Biography and memoir variants.
	"biography":               "Biography",
	"memoir":                  "Biography",
	"autobiography":           "Biography",
	"biography-autobiography": "Biography",
	"biographies-memoirs":     "Biography",

	// Non-fiction umbrella terms.
	"non-fiction":            "Non-Fiction",
	"nonfiction":             "Non-Fiction",
	"reference":              "Non-Fiction",
	"self-help":              "Self-Help",
	"selfhelp":               "Self-Help",
	"personal-development":   "Self-Help",
	"history":                "History",
	"science":                "Science",
	"popular-science":        "Science",
	"philosophy":             "Philosophy",
	"poetry":                 "Poetry",
	"travel":                 "Travel",
	"humor":                  "Humor",
	"comedy":                 "Humor",
	"comics-graphic-novels":  "Graphic Novels",
	"graphic-novels":         "Graphic Novels",
	"comic-books-strips-etc": "Graphic Novels",

	// Broad fiction umbrellas collapse to plain Fiction.
	"fiction":            "Fiction",
	"general-fiction":    "Fiction",
	"literary-fiction":   "Fiction",
	"literature":         "Fiction",
	"literature-fiction": "Fiction",
	"american-fiction":   "Fiction",
	"english-fiction":    "Fiction",
	"classics":           "Fiction",
}

// Canonical maps a provider genre label to a display label. BISAC
// paths keep their most specific segment. Unknown labels come back
// cleaned but otherwise unchanged, so rare genres survive intact.
func Canonical(raw string) string {
	segment := lastSegment(raw)
	if segment == "" {
		return ""
	}

	if label, ok := canonicalLabels[Slugify(segment)]; ok {
		return label
	}
	return segment
}

// lastSegment picks the most specific part of a "Fiction / Science
// Fiction" style path.
func lastSegment(raw string) string {
	parts := strings.Split(raw, "/")
	segment := strings.TrimSpace(parts[len(parts)-1])

	// "Fiction / General" is a catch-all, not a genre. Back up.
	if strings.EqualFold(segment, "general") && len(parts) > 1 {
		segment = strings.TrimSpace(parts[len(parts)-2])
	}
	return segment
}

// Slugify converts a genre label to a lowercase hyphenated key.
// "Science Fiction" -> "science-fiction".
func Slugify(s string) string {
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
