package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pkordes/family-trip/internal/domain"
)

// ExportService flattens the trip record into rows for download.
type ExportService struct {
	trips *TripService
}

// NewExportService constructs an ExportService that reads through trips.
func NewExportService(trips *TripService) *ExportService {
	return &ExportService{trips: trips}
}

// Export returns one row per flight, stay, activity, transfer and day event.
// Rows are grouped by kind, then by family ("all" first, then roster order,
// then any other id alphabetically). Nothing stored yet means no rows.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	rec, err := s.trips.Record(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.ExportRow{}, nil
		}
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}
	return ExportRows(rec), nil
}

// ExportRows flattens rec. Blank placeholder entries are skipped.
func ExportRows(rec domain.TripRecord) []domain.ExportRow {
	names := make(map[string]string, len(rec.Families))
	for _, f := range rec.Families {
		names[f.ID] = f.Name
	}
	row := func(id, kind string) domain.ExportRow {
		return domain.ExportRow{FamilyID: id, FamilyName: names[id], Kind: kind}
	}

	rows := []domain.ExportRow{}

	for _, id := range familyOrder(rec.Families, rec.Flights) {
		for _, f := range rec.Flights[id] {
			if f.IsZero() {
				continue
			}
			r := row(id, domain.ExportFlight)
			r.Date = f.DepartureDate
			r.Time = f.DepartureTime
			r.Title = joinNonEmpty(" ", f.Airline, f.FlightNumber)
			r.Details = flightRoute(f)
			rows = append(rows, r)
		}
	}

	for _, id := range familyOrder(rec.Families, rec.Accommodations) {
		for _, a := range rec.Accommodations[id] {
			if a == (domain.AccommodationEntry{}) {
				continue
			}
			r := row(id, domain.ExportAccommodation)
			r.Date = a.CheckIn
			r.Title = "Check-in"
			r.Details = a.Details
			rows = append(rows, r)
		}
	}

	for _, id := range familyOrder(rec.Families, rec.Activities) {
		for _, a := range rec.Activities[id] {
			if a == (domain.ActivityItem{}) {
				continue
			}
			r := row(id, domain.ExportActivity)
			r.Date = a.Date
			r.Time = a.Time
			r.Title = a.Activity
			r.Details = joinNonEmpty("; ", dressCode(a.DressCode), a.Notes)
			rows = append(rows, r)
		}
	}

	for _, id := range familyOrder(rec.Families, rec.Transfers) {
		t := rec.Transfers[id]
		if t.ToAirport != "" {
			r := row(id, domain.ExportTransfer)
			r.Title = "To airport"
			r.Details = t.ToAirport
			rows = append(rows, r)
		}
		if t.FromAirport != "" {
			r := row(id, domain.ExportTransfer)
			r.Title = "From airport"
			r.Details = t.FromAirport
			rows = append(rows, r)
		}
	}

	for _, date := range slices.Sorted(maps.Keys(rec.ScheduleByDay)) {
		day := rec.ScheduleByDay[date]
		for _, ev := range day.GroupEvents {
			rows = append(rows, dayEventRow(row(domain.AllFamilies, domain.ExportDayEvent), date, ev))
		}
		for _, id := range familyOrder(rec.Families, day.FamilyEvents) {
			for _, ev := range day.FamilyEvents[id] {
				rows = append(rows, dayEventRow(row(id, domain.ExportDayEvent), date, ev))
			}
		}
	}

	for _, date := range slices.Sorted(maps.Keys(rec.DayItems)) {
		for _, it := range rec.DayItems[date] {
			if it.Activity == "" {
				continue
			}
			id := it.FamilyID
			if id == "" {
				id = domain.AllFamilies
			}
			r := row(id, domain.ExportDayEvent)
			r.Date = date
			r.Time = it.Time
			r.Title = it.Activity
			rows = append(rows, r)
		}
	}

	return rows
}

// familyOrder lists the keys of m: "all" first, then roster order, then the
// remaining keys sorted.
func familyOrder[M ~map[string]V, V any](families []domain.Family, m M) []string {
	seen := make(map[string]bool, len(m))
	var out []string
	add := func(id string) {
		if _, ok := m[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(domain.AllFamilies)
	for _, f := range families {
		add(f.ID)
	}
	for _, id := range slices.Sorted(maps.Keys(m)) {
		add(id)
	}
	return out
}

func dayEventRow(r domain.ExportRow, date string, ev domain.ScheduleEvent) domain.ExportRow {
	r.Date = date
	r.Time = ev.Time
	r.Title = ev.Title
	r.Details = ev.Note
	return r
}

func flightRoute(f domain.FlightInfo) string {
	route := joinNonEmpty(" - ", f.DepartureAirport, f.ArrivalAirport)
	if f.ArrivalTime != "" {
		return joinNonEmpty(", ", route, "arrives "+f.ArrivalTime)
	}
	return route
}

func dressCode(s string) string {
	if s == "" {
		return ""
	}
	return "dress: " + s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
