// Package domain contains the core data types for the family trip application.
// This package has zero external dependencies and is imported by every other
// internal package (normalize, merge, store, repo, service, handler).
package domain

import "slices"

// AllFamilies is the reserved pseudo family id meaning "applies to every family".
// It lives alongside literal family ids in the accommodation and activity mappings.
const AllFamilies = "all"

// List bounds. Lists longer than these are truncated silently.
const (
	MaxFlightsPerFamily = 5
	// Two legacy five-entry location lists (Santorini + Crete) fold into one list.
	MaxAccommodationsPerFamily = 10
)

// TripRecord is the persisted aggregate. It is created with defaults on first
// run and afterwards only ever changed through merges; it is never deleted.
//
// JSON field names match the wire format the web and mobile clients exchange.
type TripRecord struct {
	Families         []Family                        `json:"families,omitempty"`
	TripStartDate    string                          `json:"tripStartDate"`
	TripEndDate      string                          `json:"tripEndDate"`
	Flights          FamilyMap[[]FlightInfo]         `json:"flights"`
	FlightDates      FamilyMap[FlightDates]          `json:"flightDates"`
	Accommodations   FamilyMap[[]AccommodationEntry] `json:"accommodations"`
	Activities       FamilyMap[[]ActivityItem]       `json:"activities"`
	Transfers        FamilyMap[AirportTransfers]     `json:"transfers"`
	Schedule         []ScheduleEvent                 `json:"schedule"`
	ScheduleByDay    map[string]DaySchedule          `json:"scheduleByDay"`
	DayItems         map[string][]DayItem            `json:"dayItems"`
	GettingAround    string                          `json:"gettingAround"`
	ImportantNumbers string                          `json:"importantNumbers"`
	ImportedImages   []ImportedImage                 `json:"importedImages,omitempty"`
}

// FlightInfo is one flight leg. Airports are 3-letter codes, times "HH:MM AM".
type FlightInfo struct {
	DepartureDate    string `json:"departureDate"`
	Airline          string `json:"airline"`
	FlightNumber     string `json:"flightNumber"`
	DepartureAirport string `json:"departureAirport"`
	DepartureTime    string `json:"departureTime"`
	ArrivalAirport   string `json:"arrivalAirport"`
	ArrivalTime      string `json:"arrivalTime"`
}

// IsZero reports whether no field of the flight has been filled in.
func (f FlightInfo) IsZero() bool {
	return f == FlightInfo{}
}

// FlightDates lets a family's outbound and return days show on the schedule.
type FlightDates struct {
	Departure string `json:"departure"`
	Return    string `json:"return"`
}

// AccommodationEntry is one hotel or house stay.
type AccommodationEntry struct {
	CheckIn string `json:"checkIn"`
	Details string `json:"details"`
}

// ActivityItem is a dinner, tour or similar planned activity.
type ActivityItem struct {
	Activity  string `json:"activity"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	DressCode string `json:"dressCode"`
	Notes     string `json:"notes"`
}

// AirportTransfers holds free-text transfer notes for one family.
type AirportTransfers struct {
	ToAirport   string `json:"toAirport"`
	FromAirport string `json:"fromAirport"`
}

// ScheduleEvent is a single entry in a day or in the generic schedule.
type ScheduleEvent struct {
	Day   string `json:"day"`
	Time  string `json:"time"`
	Title string `json:"title"`
	Note  string `json:"note"`
}

// DaySchedule is the manual content of one calendar day.
type DaySchedule struct {
	Location     string                     `json:"location"`
	GroupEvents  []ScheduleEvent            `json:"groupEvents"`
	FamilyEvents map[string][]ScheduleEvent `json:"familyEvents"`
}

// DayItem is one activity on the running per-day list (key "MM-DD").
type DayItem struct {
	FamilyID string `json:"familyId"`
	Activity string `json:"activity"`
	Time     string `json:"time"`
}

// ImportedImage is a picture saved from the device before OCR was attempted.
type ImportedImage struct {
	Name   string `json:"name"`
	Base64 string `json:"base64"`
}

// DefaultSchedule is shown until a real schedule is imported.
var DefaultSchedule = []ScheduleEvent{
	{Day: "Arrival", Title: "Check-in & welcome", Note: "Relax, unpack, first dinner together"},
	{Day: "Birthday day", Title: "Karen's 70th celebration", Note: "Party dinner & cake"},
	{Day: "Excursion", Title: "Island / activity day", Note: "Add your planned trip or boat day"},
	{Day: "Free day", Title: "Beach & free time", Note: "Optional group lunch"},
	{Day: "Departure", Title: "Check-out & goodbyes", Note: "Safe travels home"},
}

// Default trip range used before anything is loaded or imported.
const (
	DefaultTripStartDate = "2026-07-09"
	DefaultTripEndDate   = "2026-08-08"
)

// DefaultTrip returns the record shown on first run for the given roster.
// Every per-family mapping is already backfilled.
func DefaultTrip(families []Family) TripRecord {
	t := TripRecord{
		Families:       CloneFamilies(families),
		TripStartDate:  DefaultTripStartDate,
		TripEndDate:    DefaultTripEndDate,
		Flights:        FamilyMap[[]FlightInfo]{},
		FlightDates:    FamilyMap[FlightDates]{},
		Accommodations: FamilyMap[[]AccommodationEntry]{},
		Activities:     FamilyMap[[]ActivityItem]{},
		Transfers:      FamilyMap[AirportTransfers]{},
		Schedule:       slices.Clone(DefaultSchedule),
		ScheduleByDay:  map[string]DaySchedule{},
		DayItems:       map[string][]DayItem{},
	}
	t.Backfill(FamilyIDs(families))
	return t
}

// Backfill guarantees that every id in ids (and "all" where it applies) has a
// value in each per-family mapping. Existing values are left untouched.
func (t *TripRecord) Backfill(ids []string) {
	withAll := append([]string{AllFamilies}, ids...)

	t.Flights = t.Flights.Backfill(ids, DefaultFlights)
	t.FlightDates = t.FlightDates.Backfill(ids, func() FlightDates { return FlightDates{} })
	t.Accommodations = t.Accommodations.Backfill(withAll, DefaultAccommodations)
	t.Activities = t.Activities.Backfill(withAll, func() []ActivityItem { return []ActivityItem{} })
	t.Transfers = t.Transfers.Backfill(ids, func() AirportTransfers { return AirportTransfers{} })

	if t.ScheduleByDay == nil {
		t.ScheduleByDay = map[string]DaySchedule{}
	}
	if t.DayItems == nil {
		t.DayItems = map[string][]DayItem{}
	}
	if t.Schedule == nil {
		t.Schedule = slices.Clone(DefaultSchedule)
	}
}

// DefaultFlights is the per-family flight list before anything is entered:
// one blank flight so the form has a row to fill in.
func DefaultFlights() []FlightInfo {
	return []FlightInfo{{}}
}

// DefaultAccommodations mirrors DefaultFlights for lodging.
func DefaultAccommodations() []AccommodationEntry {
	return []AccommodationEntry{{}}
}

// Clone returns a deep copy of t that shares no maps or slices with it.
func (t TripRecord) Clone() TripRecord {
	out := t
	out.Families = CloneFamilies(t.Families)
	out.Flights = cloneListMap(t.Flights)
	out.FlightDates = t.FlightDates.Clone()
	out.Accommodations = cloneListMap(t.Accommodations)
	out.Activities = cloneListMap(t.Activities)
	out.Transfers = t.Transfers.Clone()
	out.Schedule = slices.Clone(t.Schedule)
	if t.ScheduleByDay != nil {
		out.ScheduleByDay = make(map[string]DaySchedule, len(t.ScheduleByDay))
		for k, v := range t.ScheduleByDay {
			out.ScheduleByDay[k] = v.Clone()
		}
	}
	if t.DayItems != nil {
		out.DayItems = make(map[string][]DayItem, len(t.DayItems))
		for k, v := range t.DayItems {
			out.DayItems[k] = slices.Clone(v)
		}
	}
	out.ImportedImages = slices.Clone(t.ImportedImages)
	return out
}

// Clone returns a deep copy of d.
func (d DaySchedule) Clone() DaySchedule {
	out := DaySchedule{
		Location:    d.Location,
		GroupEvents: slices.Clone(d.GroupEvents),
	}
	if d.FamilyEvents != nil {
		out.FamilyEvents = make(map[string][]ScheduleEvent, len(d.FamilyEvents))
		for k, v := range d.FamilyEvents {
			out.FamilyEvents[k] = slices.Clone(v)
		}
	}
	return out
}

func cloneListMap[E any](m FamilyMap[[]E]) FamilyMap[[]E] {
	if m == nil {
		return nil
	}
	out := make(FamilyMap[[]E], len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

// CloneFamilies deep-copies a roster.
func CloneFamilies(fs []Family) []Family {
	if fs == nil {
		return nil
	}
	out := make([]Family, len(fs))
	for i, f := range fs {
		out[i] = f
		out[i].Members = slices.Clone(f.Members)
	}
	return out
}
