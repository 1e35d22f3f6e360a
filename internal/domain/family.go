package domain

import (
	"maps"
	"regexp"
	"strings"
)

// Family is one household travelling together. Name is the display name,
// e.g. "Paul and Karen"; ID is stable and used as the per-family map key.
type Family struct {
	ID      string         `json:"id" yaml:"id"`
	Name    string         `json:"name" yaml:"name"`
	Members []FamilyMember `json:"members" yaml:"members"`
}

// FamilyMember is one traveller in a Family.
type FamilyMember struct {
	Name string `json:"name" yaml:"name"`
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

var reAnd = regexp.MustCompile(`\s+and\s+`)

// NameParts splits a display name joined by " and " into its given names.
// "Lance and Allison" yields ["Lance", "Allison"].
func (f Family) NameParts() []string {
	var out []string
	for _, p := range reAnd.Split(f.Name, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FamilyIDs returns the ids of fs in roster order.
func FamilyIDs(fs []Family) []string {
	ids := make([]string, len(fs))
	for i, f := range fs {
		ids[i] = f.ID
	}
	return ids
}

// FamilyMap is a per-family mapping keyed by family id. Besides literal ids
// it may hold the AllFamilies key.
//
// Reads that must always see a value go through At, which backfills a default
// for a key that is not present yet instead of relying on initialisation order.
type FamilyMap[V any] map[string]V

// At returns the value for id, inserting def() first when id is absent.
// At on a nil map returns def() without storing it.
func (m FamilyMap[V]) At(id string, def func() V) V {
	if v, ok := m[id]; ok {
		return v
	}
	v := def()
	if m != nil {
		m[id] = v
	}
	return v
}

// Backfill returns m with a def() value for every id not yet present.
// A nil map is allocated.
func (m FamilyMap[V]) Backfill(ids []string, def func() V) FamilyMap[V] {
	if m == nil {
		m = make(FamilyMap[V], len(ids))
	}
	for _, id := range ids {
		m.At(id, def)
	}
	return m
}

// Clone returns a shallow copy of m. Values that are slices still share
// backing arrays; TripRecord.Clone deep-copies those.
func (m FamilyMap[V]) Clone() FamilyMap[V] {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
