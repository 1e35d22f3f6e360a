package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var reTripDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}|\d{2}[-/]\d{2})$`)

// familyKeyed are the top-level fields whose value is keyed by family id.
var familyKeyed = []string{
	"flights", "accommodations", "accommodationSantorini", "accommodationCrete", "transfers",
}

// SanitizeTripJSON makes a model reply fit the trip schema where that can be
// done without guessing:
//   - unknown top-level keys, nulls and empty strings are removed;
//   - null and empty-string per-family values are removed;
//   - dates that are not YYYY-MM-DD or MM-DD are removed;
//   - strings are trimmed.
//
// A blank value means "not found" and is treated as absent.
// It returns the cleaned document and the list of what it dropped.
func SanitizeTripJSON(raw []byte, familyIDs []string) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	allowed := BuildTripJSONSchema(familyIDs)["properties"].(map[string]any)

	var dropped []string
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch v := m[k].(type) {
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		case string:
			if s := strings.TrimSpace(v); s != "" {
				m[k] = s
			} else {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			}
		}
	}

	for _, k := range []string{"tripStartDate", "tripEndDate"} {
		if s, ok := m[k].(string); ok && !reTripDate.MatchString(s) {
			delete(m, k)
			dropped = append(dropped, k+"(format)")
		}
	}

	for _, k := range familyKeyed {
		byFamily, ok := m[k].(map[string]any)
		if !ok {
			continue
		}
		for _, id := range slices.Sorted(maps.Keys(byFamily)) {
			switch v := byFamily[id].(type) {
			case nil:
				delete(byFamily, id)
				dropped = append(dropped, k+"."+id+"(null)")
			case string:
				if strings.TrimSpace(v) == "" {
					delete(byFamily, id)
					dropped = append(dropped, k+"."+id+"(empty)")
				}
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, dropped, nil
}
