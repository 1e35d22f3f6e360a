package normalize

import (
	"github.com/pkordes/family-trip/internal/domain"
)

// Accommodation data has been stored in several shapes over time:
//
//	current:  accommodations:          {id: [{checkIn, details}, ...]}
//	v2:       accommodationSantorini:  {id: [{checkIn, details}, ...]}  (+ accommodationCrete)
//	v1:       accommodationSantorini:  {id: "text"}  with accommodationSantoriniCheckIn: {id: "date"}
//	v0:       accommodation:           {id: "text"}
//
// Each family's raw value is classified into a stayShape, and every shape is
// turned into entries by the single stays constructor.

// stayShape is one historical encoding of a family's stays at one location.
type stayShape interface {
	entries() []domain.AccommodationEntry
}

// entryList is the list-of-objects encoding (current and v2).
type entryList []any

func (l entryList) entries() []domain.AccommodationEntry {
	return mapList(l, AccommodationEntry)
}

// textStay is a free-text stay with an optional separate check-in date (v1, v0).
type textStay struct {
	details string
	checkIn string
}

func (s textStay) entries() []domain.AccommodationEntry {
	return []domain.AccommodationEntry{{CheckIn: s.checkIn, Details: s.details}}
}

// unknownStay is a present value of no recognised shape.
type unknownStay struct{}

func (unknownStay) entries() []domain.AccommodationEntry { return nil }

// legacyLocations lists the old per-location fields in concatenation order.
var legacyLocations = []struct {
	field   string
	checkIn string
}{
	{"accommodationSantorini", "accommodationSantoriniCheckIn"},
	{"accommodationCrete", "accommodationCreteCheckIn"},
}

// classifyStay maps one family's raw value to its shape.
// ok is false when the value is absent or null.
func classifyStay(v any, checkIn string) (stayShape, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		if len(t) == 0 {
			return unknownStay{}, true
		}
		return entryList(t), true
	case string:
		return textStay{details: t, checkIn: checkIn}, true
	default:
		return unknownStay{}, true
	}
}

// stays is the canonical constructor: shapes are concatenated in order and the
// result capped at MaxAccommodationsPerFamily. It is never empty.
func stays(shapes []stayShape) []domain.AccommodationEntry {
	var out []domain.AccommodationEntry
	for _, s := range shapes {
		out = append(out, s.entries()...)
	}
	if len(out) == 0 {
		return domain.DefaultAccommodations()
	}
	return capped(out, domain.MaxAccommodationsPerFamily)
}

// Accommodations builds the per-family stay lists from a decoded trip
// document, whichever shape it uses. Per family id the current field wins;
// otherwise the per-location fields are folded together (Santorini first);
// the v0 single field is used only when neither location has a value.
// The result is nil when the document carries no accommodation data.
func Accommodations(doc map[string]any) domain.FamilyMap[[]domain.AccommodationEntry] {
	shapes := map[string][]stayShape{}
	modern := map[string]bool{}

	current, _ := doc["accommodations"].(map[string]any)
	for id, v := range current {
		if s, ok := classifyStay(v, ""); ok {
			shapes[id] = append(shapes[id], s)
			modern[id] = true
		}
	}

	for _, loc := range legacyLocations {
		byFamily, _ := doc[loc.field].(map[string]any)
		checkIns, _ := doc[loc.checkIn].(map[string]any)
		for id, v := range byFamily {
			if modern[id] {
				continue
			}
			if s, ok := classifyStay(v, str(checkIns, id)); ok {
				shapes[id] = append(shapes[id], s)
			}
		}
	}

	single, _ := doc["accommodation"].(map[string]any)
	for id, v := range single {
		if len(shapes[id]) > 0 {
			continue
		}
		if s, ok := classifyStay(v, ""); ok {
			shapes[id] = append(shapes[id], s)
		}
	}

	if len(shapes) == 0 {
		return nil
	}
	out := make(domain.FamilyMap[[]domain.AccommodationEntry], len(shapes))
	for id, ss := range shapes {
		out[id] = stays(ss)
	}
	return out
}
