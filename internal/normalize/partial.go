package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/merge"
)

// Fields is the set of top-level trip field names a partial may carry,
// including the legacy accommodation fields.
var Fields = []string{
	"families", "tripStartDate", "tripEndDate",
	"flights", "flightDates", "accommodations", "activities", "transfers",
	"schedule", "scheduleByDay", "dayItems",
	"gettingAround", "importantNumbers", "importedImages",
	"accommodation",
	"accommodationSantorini", "accommodationSantoriniCheckIn",
	"accommodationCrete", "accommodationCreteCheckIn",
}

// Partial converts a decoded trip document (or any subset of one) into a
// domain.Partial. Unknown keys are ignored; values of the wrong type count as
// not provided.
func Partial(doc map[string]any) domain.Partial {
	var p domain.Partial

	if list, ok := doc["families"].([]any); ok {
		for _, v := range list {
			if f, ok := Family(v); ok {
				p.Families = append(p.Families, f)
			}
		}
	}

	p.TripStartDate = optStr(doc, "tripStartDate")
	p.TripEndDate = optStr(doc, "tripEndDate")
	p.GettingAround = optStr(doc, "gettingAround")
	p.ImportantNumbers = optStr(doc, "importantNumbers")

	p.Flights = perFamily(doc, "flights", func(v any) ([]domain.FlightInfo, bool) {
		return Flights(v), v != nil
	})
	p.FlightDates = perFamily(doc, "flightDates", objectOf(FlightDates))
	p.Transfers = perFamily(doc, "transfers", objectOf(Transfers))
	p.Activities = perFamily(doc, "activities", listOf(Activity))
	p.Accommodations = Accommodations(doc)

	if list, ok := doc["schedule"].([]any); ok && len(list) > 0 {
		p.Schedule = mapList(list, ScheduleEvent)
	}
	p.ScheduleByDay = perKey(doc, "scheduleByDay", objectOf(DaySchedule))
	p.DayItems = perKey(doc, "dayItems", listOf(DayItem))

	if list, ok := doc["importedImages"].([]any); ok {
		imgs := []domain.ImportedImage{}
		for _, v := range list {
			if img, ok := ImportedImage(v); ok {
				imgs = append(imgs, img)
			}
		}
		p.ImportedImages = &imgs
	}
	return p
}

// DecodePartial decodes a JSON trip document into a domain.Partial.
// The document must be a JSON object.
func DecodePartial(b []byte) (domain.Partial, error) {
	doc, err := decodeObject(b)
	if err != nil {
		return domain.Partial{}, err
	}
	return Partial(doc), nil
}

// FieldPartial builds the single-field partial for a manual edit of field
// name. value may be any JSON-encodable Go value (a string, a
// []domain.FlightInfo, a map decoded from a request...).
func FieldPartial(name string, value any) (domain.Partial, error) {
	if !slices.Contains(Fields, name) {
		return domain.Partial{}, fmt.Errorf("%w: unknown trip field %q", domain.ErrValidation, name)
	}
	b, err := json.Marshal(value)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("%w: field %q: %v", domain.ErrValidation, name, err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return domain.Partial{}, fmt.Errorf("%w: field %q: %v", domain.ErrValidation, name, err)
	}
	return Partial(map[string]any{name: v}), nil
}

// Record decodes a stored trip document into a full record: the defaults for
// families, with the document merged over them and every family backfilled.
// A document without a usable roster keeps families.
func Record(b []byte, families []domain.Family) (domain.TripRecord, error) {
	p, err := DecodePartial(b)
	if err != nil {
		return domain.TripRecord{}, err
	}
	rec := merge.Merge(domain.DefaultTrip(families), p)
	rec.Backfill(domain.FamilyIDs(rec.Families))
	return rec, nil
}

func decodeObject(b []byte) (map[string]any, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil, fmt.Errorf("%w: trip document must be a JSON object", domain.ErrValidation)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domain.ErrValidation, err)
	}
	return doc, nil
}

// perFamily converts doc[field] key by key with conv. Keys for which conv
// reports !ok are left out; nil is returned when no key survives.
func perFamily[V any](doc map[string]any, field string, conv func(any) (V, bool)) domain.FamilyMap[V] {
	return domain.FamilyMap[V](perKey(doc, field, conv))
}

func perKey[V any](doc map[string]any, field string, conv func(any) (V, bool)) map[string]V {
	raw, ok := doc[field].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]V, len(raw))
	for k, v := range raw {
		if val, ok := conv(v); ok {
			out[k] = val
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// objectOf accepts only JSON objects.
func objectOf[V any](f func(any) V) func(any) (V, bool) {
	return func(v any) (V, bool) {
		if _, ok := v.(map[string]any); !ok {
			var zero V
			return zero, false
		}
		return f(v), true
	}
}

// listOf accepts only JSON arrays, converting each element with f.
func listOf[V any](f func(any) V) func(any) ([]V, bool) {
	return func(v any) ([]V, bool) {
		list, ok := v.([]any)
		if !ok {
			return nil, false
		}
		return mapList(list, f), true
	}
}
