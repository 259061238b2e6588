package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9]+`)
	nonNameChars  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	collapseSpace = regexp.MustCompile(`\s+`)
)

// GenerateSlug builds the URL-safe key for a restaurant from its name and city.
//
//	GenerateSlug("Girl & The Goat", "Chicago") == "girl-the-goat-chicago"
func GenerateSlug(name, city string) string {
	combined := strings.TrimSpace(name + " " + city)
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), combined)
	if err != nil {
		folded = combined
	}
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// SuffixSlug appends a short random token to a slug that is already taken
func SuffixSlug(slug string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	if slug == "" {
		return token
	}
	return slug + "-" + token
}

// SanitizeName strips everything except letters, digits and whitespace from
// a restaurant name typed by a person or produced by a model.
func SanitizeName(name string) string {
	cleaned := nonNameChars.ReplaceAllString(name, "")
	return strings.TrimSpace(collapseSpace.ReplaceAllString(cleaned, " "))
}
