package domain

// Partial is a subset of trip fields: the unit of merge input from an import,
// a manual edit, or a remote load.
//
// Pointer scalars separate "not present" (nil) from "intentionally cleared"
// (pointer to ""). Mapping fields are nil when absent; a present mapping
// replaces only the keys it carries.
type Partial struct {
	Families         []Family                        `json:"families,omitempty"`
	TripStartDate    *string                         `json:"tripStartDate,omitempty"`
	TripEndDate      *string                         `json:"tripEndDate,omitempty"`
	Flights          FamilyMap[[]FlightInfo]         `json:"flights,omitempty"`
	FlightDates      FamilyMap[FlightDates]          `json:"flightDates,omitempty"`
	Accommodations   FamilyMap[[]AccommodationEntry] `json:"accommodations,omitempty"`
	Activities       FamilyMap[[]ActivityItem]       `json:"activities,omitempty"`
	Transfers        FamilyMap[AirportTransfers]     `json:"transfers,omitempty"`
	Schedule         []ScheduleEvent                 `json:"schedule,omitempty"`
	ScheduleByDay    map[string]DaySchedule          `json:"scheduleByDay,omitempty"`
	DayItems         map[string][]DayItem            `json:"dayItems,omitempty"`
	GettingAround    *string                         `json:"gettingAround,omitempty"`
	ImportantNumbers *string                         `json:"importantNumbers,omitempty"`
	ImportedImages   *[]ImportedImage                `json:"importedImages,omitempty"`
}

// IsEmpty reports whether p carries no field at all.
func (p Partial) IsEmpty() bool {
	return len(p.Families) == 0 &&
		p.TripStartDate == nil && p.TripEndDate == nil &&
		p.Flights == nil && p.FlightDates == nil &&
		p.Accommodations == nil && p.Activities == nil && p.Transfers == nil &&
		len(p.Schedule) == 0 && p.ScheduleByDay == nil && p.DayItems == nil &&
		p.GettingAround == nil && p.ImportantNumbers == nil && p.ImportedImages == nil
}

// String returns a pointer to s, for building partials in code.
func String(s string) *string {
	return &s
}
