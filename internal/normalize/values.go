// Package normalize turns loosely typed trip data (decoded JSON from storage,
// the server, or an LLM) into the canonical domain types.
//
// Every function accepts arbitrary input, including legacy shapes and garbage,
// and returns a well-typed value with defaults for anything it does not
// recognise. Nothing here returns an error or panics on bad data.
package normalize

import (
	"github.com/pkordes/family-trip/internal/domain"
)

// Flight converts one flight value. A string is an old free-text flight and
// becomes the airline; an object contributes each known string field.
func Flight(v any) domain.FlightInfo {
	switch t := v.(type) {
	case string:
		return domain.FlightInfo{Airline: t}
	case map[string]any:
		return domain.FlightInfo{
			DepartureDate:    str(t, "departureDate"),
			Airline:          str(t, "airline"),
			FlightNumber:     str(t, "flightNumber"),
			DepartureAirport: str(t, "departureAirport"),
			DepartureTime:    str(t, "departureTime"),
			ArrivalAirport:   str(t, "arrivalAirport"),
			ArrivalTime:      str(t, "arrivalTime"),
		}
	default:
		return domain.FlightInfo{}
	}
}

// Flights converts a family's flights: either a list or a single legacy value.
// Lists keep their first MaxFlightsPerFamily entries. The result is never empty.
func Flights(v any) []domain.FlightInfo {
	if list, ok := v.([]any); ok && len(list) > 0 {
		return mapList(capped(list, domain.MaxFlightsPerFamily), Flight)
	}
	return []domain.FlightInfo{Flight(v)}
}

// AccommodationEntry converts one stay object.
func AccommodationEntry(v any) domain.AccommodationEntry {
	o, _ := v.(map[string]any)
	return domain.AccommodationEntry{
		CheckIn: str(o, "checkIn"),
		Details: str(o, "details"),
	}
}

// Activity converts one activity object.
func Activity(v any) domain.ActivityItem {
	o, _ := v.(map[string]any)
	return domain.ActivityItem{
		Activity:  str(o, "activity"),
		Date:      str(o, "date"),
		Time:      str(o, "time"),
		DressCode: str(o, "dressCode"),
		Notes:     str(o, "notes"),
	}
}

// Transfers converts a family's airport transfer notes.
func Transfers(v any) domain.AirportTransfers {
	o, _ := v.(map[string]any)
	return domain.AirportTransfers{
		ToAirport:   str(o, "toAirport"),
		FromAirport: str(o, "fromAirport"),
	}
}

// FlightDates converts a family's departure/return days.
func FlightDates(v any) domain.FlightDates {
	o, _ := v.(map[string]any)
	return domain.FlightDates{
		Departure: str(o, "departure"),
		Return:    str(o, "return"),
	}
}

// ScheduleEvent converts one schedule entry.
func ScheduleEvent(v any) domain.ScheduleEvent {
	o, _ := v.(map[string]any)
	return domain.ScheduleEvent{
		Day:   str(o, "day"),
		Time:  str(o, "time"),
		Title: str(o, "title"),
		Note:  str(o, "note"),
	}
}

// DaySchedule converts one calendar day. Family events are kept only for
// keys whose value is a list.
func DaySchedule(v any) domain.DaySchedule {
	o, _ := v.(map[string]any)
	d := domain.DaySchedule{
		Location:     str(o, "location"),
		GroupEvents:  []domain.ScheduleEvent{},
		FamilyEvents: map[string][]domain.ScheduleEvent{},
	}
	if list, ok := o["groupEvents"].([]any); ok {
		d.GroupEvents = mapList(list, ScheduleEvent)
	}
	if fe, ok := o["familyEvents"].(map[string]any); ok {
		for id, raw := range fe {
			if list, ok := raw.([]any); ok {
				d.FamilyEvents[id] = mapList(list, ScheduleEvent)
			}
		}
	}
	return d
}

// DayItem converts one entry of the running per-day list.
func DayItem(v any) domain.DayItem {
	o, _ := v.(map[string]any)
	return domain.DayItem{
		FamilyID: str(o, "familyId"),
		Activity: str(o, "activity"),
		Time:     str(o, "time"),
	}
}

// Family converts a roster entry. ok is false when there is no usable id.
func Family(v any) (domain.Family, bool) {
	o, _ := v.(map[string]any)
	f := domain.Family{ID: str(o, "id"), Name: str(o, "name"), Members: []domain.FamilyMember{}}
	if f.ID == "" || f.ID == domain.AllFamilies {
		return domain.Family{}, false
	}
	if list, ok := o["members"].([]any); ok {
		for _, m := range list {
			mo, _ := m.(map[string]any)
			if name := str(mo, "name"); name != "" {
				f.Members = append(f.Members, domain.FamilyMember{Name: name, Note: str(mo, "note")})
			}
		}
	}
	return f, true
}

// ImportedImage converts a saved image. ok is false without image data.
func ImportedImage(v any) (domain.ImportedImage, bool) {
	o, _ := v.(map[string]any)
	img := domain.ImportedImage{Name: str(o, "name"), Base64: str(o, "base64")}
	return img, img.Base64 != ""
}

// str returns o[key] when it is a string, else "".
func str(o map[string]any, key string) string {
	s, _ := o[key].(string)
	return s
}

// optStr returns a pointer to o[key] when it is a string, else nil.
// A missing key, null, or a value of another type are all "not provided".
func optStr(o map[string]any, key string) *string {
	if s, ok := o[key].(string); ok {
		return &s
	}
	return nil
}

func capped[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func mapList[T any](list []any, f func(any) T) []T {
	out := make([]T, len(list))
	for i, v := range list {
		out[i] = f(v)
	}
	return out
}
