// Package textscan pulls trip dates and per-family flight lines out of free
// text (a paste, or text extracted from a PDF when no LLM is configured).
//
// It is deliberately heuristic: it only fills fields it found evidence for
// and never fails.
package textscan

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/pkordes/family-trip/internal/domain"
)

var (
	reISODate = regexp.MustCompile(`\b20\d{2}-\d{2}-\d{2}\b`)
	reLineEnd = regexp.MustCompile(`\r?\n`)
)

// flightWords mark a line as flight-related (case-insensitive substring).
var flightWords = []string{"flight", "depart", "arriv", "airline", "airport"}

// longLine is the length above which a line naming a family is kept even
// without a flight keyword.
const longLine = 20

// Extract scans text and returns a partial trip containing only what it found:
//   - tripStartDate/tripEndDate from YYYY-MM-DD dates (earliest, latest);
//   - flights for every family whose name appears on a flight-like line, as a
//     single flight whose airline holds the matching lines.
//
// An empty Partial means nothing was recognised.
func Extract(text string, families []domain.Family) domain.Partial {
	var p domain.Partial

	if dates := distinctDates(text); len(dates) > 0 {
		p.TripStartDate = domain.String(dates[0])
		p.TripEndDate = domain.String(dates[len(dates)-1])
	}

	blocks := FamilyBlocks(text, families)
	if len(blocks) > 0 {
		p.Flights = make(domain.FamilyMap[[]domain.FlightInfo], len(blocks))
		for id, block := range blocks {
			p.Flights[id] = []domain.FlightInfo{{Airline: block}}
		}
	}
	return p
}

// distinctDates returns the ISO dates in text, de-duplicated and sorted.
// Lexicographic order is date order because the format is zero-padded.
func distinctDates(text string) []string {
	dates := reISODate.FindAllString(text, -1)
	slices.Sort(dates)
	return slices.Compact(dates)
}

// FamilyBlocks attributes lines of text to families. A line belongs to a family
// when it mentions one of the family's given names and is either flight-related
// or longer than 20 characters (runes, not bytes). A line may belong to several families.
// Families with no lines are absent from the result.
func FamilyBlocks(text string, families []domain.Family) map[string]string {
	lines := nonEmptyLines(text)
	out := make(map[string]string)

	for _, fam := range families {
		parts := lowered(fam.NameParts())
		if len(parts) == 0 {
			continue
		}
		var matched []string
		for _, line := range lines {
			lower := strings.ToLower(line)
			if !containsAny(lower, parts) {
				continue
			}
			if containsAny(lower, flightWords) || utf8.RuneCountInString(line) > longLine {
				matched = append(matched, line)
			}
		}
		if len(matched) > 0 {
			out[fam.ID] = strings.Join(matched, "\n")
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range reLineEnd.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func lowered(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
