// Package normalize derives stable street keys and offense categories from
// the free-text fields of raw records.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// knownStreets is the allow-list of local street names, matched whole-word
// and case-insensitively before any pattern rule runs. A hit returns the
// canonical casing listed here, which sidesteps abbreviation and ordering
// noise in the raw text.
var knownStreets = []string{
	"Alma", "University", "Hamilton", "Waverley", "Bryant", "Emerson", "Ramona",
	"High", "Cowper", "Webster", "Middlefield", "El Camino", "Page Mill", "Oregon",
	"Charleston", "Arastradero", "San Antonio", "Embarcadero", "California", "Cambridge",
	"Addison", "Channing", "Homer", "Lytton", "Everett", "Park", "Forest", "Hanover",
}

// streetSuffixes maps lowercase suffix tokens to their canonical form.
var streetSuffixes = map[string]string{
	"st": "St", "ave": "Ave", "blvd": "Blvd", "rd": "Rd", "way": "Way",
	"dr": "Dr", "ln": "Ln", "ct": "Ct", "pl": "Pl", "cir": "Cir",
}

var (
	// intersectionPattern splits "A & B", "A / B", "A and B". Only the
	// first side becomes the key; keeping one deterministic side beats
	// preserving both inconsistently.
	intersectionPattern = regexp.MustCompile(`(?i)([A-Za-z][A-Za-z\s]*?)\s*(?:&|/|\band\b)\s*([A-Za-z][A-Za-z\s]*)`)

	// blockPattern matches "600 block of FOREST AVE" style addresses.
	blockPattern = regexp.MustCompile(`(?i)block\s+of\s+([A-Za-z\s]+)`)

	alphaToken = regexp.MustCompile(`^[A-Za-z]+$`)
)

var titleCaser = cases.Title(language.AmericanEnglish)

// StreetKey extracts a canonical street or intersection name from a raw
// location string. Rules run in fixed precedence, first match wins:
// allow-list, suffix-anchored name, intersection, block address, then a
// lossy first-token fallback. Empty input returns "".
func StreetKey(location string) string {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return ""
	}

	lower := strings.ToLower(loc)
	for _, street := range knownStreets {
		if containsWord(lower, strings.ToLower(street)) {
			return street
		}
	}

	if key := suffixStreet(loc); key != "" {
		return key
	}

	if m := intersectionPattern.FindStringSubmatch(loc); m != nil {
		return titleCaser.String(strings.TrimSpace(m[1]))
	}

	if m := blockPattern.FindStringSubmatch(loc); m != nil {
		return titleCaser.String(strings.TrimSpace(m[1]))
	}

	for _, tok := range strings.Fields(loc) {
		if len(tok) > 2 && alphaToken.MatchString(tok) {
			return titleCaser.String(tok)
		}
	}
	return loc
}

// suffixStreet finds a street-suffix token and walks backward collecting
// the name tokens before it. Numeric tokens are the street-number prefix
// and stop the walk.
func suffixStreet(loc string) string {
	tokens := strings.Fields(loc)
	for i, tok := range tokens {
		canon, ok := streetSuffixes[strings.ToLower(strings.Trim(tok, ".,;:"))]
		if !ok {
			continue
		}

		var name []string
		for j := i - 1; j >= 0; j-- {
			// Numbers are the street-number prefix; separators like "&"
			// mean we crossed into the other side of an intersection.
			if !alphaToken.MatchString(tokens[j]) {
				break
			}
			name = append([]string{tokens[j]}, name...)
		}
		if len(name) > 0 {
			return titleCaser.String(strings.Join(name, " ") + " " + canon)
		}
	}
	return ""
}

// containsWord checks if text contains needle as a whole word (bounded by
// non-alphanumeric characters or string boundaries). Both arguments must
// already be lowercased.
func containsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		absIdx := start + idx
		endIdx := absIdx + len(needle)

		leftOK := absIdx == 0 || !isAlphaNum(text[absIdx-1])
		rightOK := endIdx == len(text) || !isAlphaNum(text[endIdx])

		if leftOK && rightOK {
			return true
		}
		start = absIdx + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
