package ranking

import (
	"regexp"
	"strconv"
	"strings"

	"Campfire/models"
)

var (
	leadingNumber = regexp.MustCompile(`^(\d+)[.)]\s*`)
	leadingDashes = regexp.MustCompile(`^[\s\-\x{2013}\x{2014}]+`)
)

// minReasonLen filters out filler like "-" or "n/a" in the reason column
const minReasonLen = 6

// splitLine cuts "name - reason - description". Models tend to echo the em
// dashes of the candidate list, so those count as the delimiter too.
func splitLine(rest string) (name, reason, description string) {
	rest = strings.ReplaceAll(rest, " — ", " - ")
	rest = strings.ReplaceAll(rest, " – ", " - ")
	parts := strings.Split(rest, " - ")

	name = strings.TrimSpace(parts[0])
	switch {
	case len(parts) >= 3:
		if r := strings.TrimSpace(parts[1]); r != "-" && len(r) >= minReasonLen {
			reason = r
		}
		description = strings.Join(parts[2:], " - ")
	case len(parts) == 2:
		description = parts[1]
	}
	description = strings.TrimSpace(leadingDashes.ReplaceAllString(description, ""))
	return name, reason, description
}

// ParseRankedLines reads "N. name - reason - description" lines. Lines
// without a leading number are ignored; the name column is dropped since
// identity comes from the index.
func ParseRankedLines(text string) []models.RankedRef {
	var refs []models.RankedRef
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		m := leadingNumber.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(line[m[2]:m[3]])
		if err != nil {
			continue
		}
		_, reason, description := splitLine(line[m[1]:])
		refs = append(refs, models.RankedRef{Index: index, Reason: reason, Description: description})
	}
	return refs
}

// ParseSuggestionLines reads free-text picks; numbering is optional and a
// line with no delimiter is taken as a bare name
func ParseSuggestionLines(text string) []models.NamedSuggestion {
	var out []models.NamedSuggestion
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = leadingNumber.ReplaceAllString(line, "")
		name, reason, description := splitLine(line)
		if name == "" {
			continue
		}
		out = append(out, models.NamedSuggestion{Name: name, Reason: reason, Description: description})
	}
	return out
}
