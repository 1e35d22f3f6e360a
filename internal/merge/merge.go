// Package merge reconciles a partial trip record into the current one.
//
// The same rules apply to import results, single-field manual edits and
// remote loads; whichever merge runs last wins per field or per key.
package merge

import (
	"maps"
	"slices"

	"github.com/pkordes/family-trip/internal/domain"
)

// Merge returns current with partial applied. Neither input is modified and
// the result shares no maps or slices with them.
//
//   - Scalars are replaced when the partial sets them; "" is a real value.
//   - Per-family and per-day mappings replace only the keys the partial
//     carries. A family's list is replaced whole, never appended to.
//   - schedule and families are replaced only by a non-empty list.
//   - Flight and accommodation lists are capped at their maximum.
//
// Merging an empty partial returns a copy equal to current, and merging the
// same partial twice gives the same result as merging it once.
func Merge(current domain.TripRecord, partial domain.Partial) domain.TripRecord {
	next := current.Clone()

	if len(partial.Families) > 0 {
		next.Families = domain.CloneFamilies(partial.Families)
	}

	setIfPresent(&next.TripStartDate, partial.TripStartDate)
	setIfPresent(&next.TripEndDate, partial.TripEndDate)
	setIfPresent(&next.GettingAround, partial.GettingAround)
	setIfPresent(&next.ImportantNumbers, partial.ImportantNumbers)

	next.Flights = replaceKeys(next.Flights, partial.Flights, func(v []domain.FlightInfo) []domain.FlightInfo {
		return cappedClone(v, domain.MaxFlightsPerFamily, domain.DefaultFlights)
	})
	next.Accommodations = replaceKeys(next.Accommodations, partial.Accommodations, func(v []domain.AccommodationEntry) []domain.AccommodationEntry {
		return cappedClone(v, domain.MaxAccommodationsPerFamily, domain.DefaultAccommodations)
	})
	next.Activities = replaceKeys(next.Activities, partial.Activities, cloneList[domain.ActivityItem])
	next.FlightDates = replaceKeys(next.FlightDates, partial.FlightDates, same[domain.FlightDates])
	next.Transfers = replaceKeys(next.Transfers, partial.Transfers, same[domain.AirportTransfers])

	next.ScheduleByDay = replaceKeys(next.ScheduleByDay, partial.ScheduleByDay, domain.DaySchedule.Clone)
	next.DayItems = replaceKeys(next.DayItems, partial.DayItems, cloneList[domain.DayItem])

	if len(partial.Schedule) > 0 {
		next.Schedule = slices.Clone(partial.Schedule)
	}
	if partial.ImportedImages != nil {
		next.ImportedImages = slices.Clone(*partial.ImportedImages)
	}
	return next
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// replaceKeys copies every key of from into dst (allocating dst if needed),
// passing each value through conv. A nil from leaves dst untouched.
func replaceKeys[M ~map[string]V, V any](dst, from M, conv func(V) V) M {
	if from == nil {
		return dst
	}
	if dst == nil {
		dst = make(M, len(from))
	}
	for _, k := range slices.Sorted(maps.Keys(from)) {
		dst[k] = conv(from[k])
	}
	return dst
}

// cappedClone copies list, keeping at most n entries. An empty list becomes
// def() so a family never ends up with nothing to edit.
func cappedClone[T any](list []T, n int, def func() []T) []T {
	if len(list) == 0 {
		return def()
	}
	if len(list) > n {
		list = list[:n]
	}
	return slices.Clone(list)
}

func cloneList[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return slices.Clone(list)
}

func same[T any](v T) T { return v }
