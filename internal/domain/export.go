package domain

// Export row kinds.
const (
	ExportFlight        = "flight"
	ExportAccommodation = "accommodation"
	ExportActivity      = "activity"
	ExportTransfer      = "transfer"
	ExportDayEvent      = "day_event"
)

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per flight, stay, activity, transfer
// or day event, with the family repeated on every row. Blank placeholder
// entries (the empty row a form starts with) are not exported.
type ExportRow struct {
	FamilyID   string // family id, or "all"
	FamilyName string // empty for "all" and for ids not on the roster
	Kind       string // one of the Export* constants
	Date       string // date or date-key as stored; may be empty
	Time       string
	Title      string // airline + flight number, activity name, event title...
	Details    string // free text: route, stay details, notes
}
