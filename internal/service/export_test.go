package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/service"
)

func newExportService(r *mockTripRepo) *service.ExportService {
	return service.NewExportService(newTripService(r, nil))
}

func TestExportService_Export_NothingStored(t *testing.T) {
	r, _ := memRepo("")

	rows, err := newExportService(r).Export(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestExportService_Export_DefaultsProduceNoRows(t *testing.T) {
	r, _ := memRepo(`{}`)

	rows, err := newExportService(r).Export(context.Background())

	require.NoError(t, err)
	assert.Empty(t, rows, "blank placeholder flights and stays are skipped")
}

func TestExportService_Export_Rows(t *testing.T) {
	r, _ := memRepo(`{
		"flights": {
			"jones": [{"airline":"Aegean","flightNumber":"A3 600","departureDate":"2026-07-10",
			           "departureTime":"9:00 AM","departureAirport":"ATH","arrivalAirport":"JTR","arrivalTime":"9:45 AM"}],
			"smith": [{"airline":"Delta","flightNumber":"DL 200"}]
		},
		"accommodations": {"all": [{"checkIn":"2026-07-10","details":"Villa Oia"}]},
		"activities": {"smith": [{"activity":"Boat tour","date":"2026-07-12","dressCode":"swim","notes":"bring towels"}]},
		"transfers": {"jones": {"toAirport":"Taxi at 6am"}},
		"scheduleByDay": {"07-11": {"groupEvents":[{"time":"8:00 PM","title":"Dinner","note":"Ammoudi"}],
		                            "familyEvents":{"smith":[{"title":"Spa"}]}}},
		"dayItems": {"07-12": [{"familyId":"jones","activity":"Hike","time":"7:00 AM"}]}
	}`)

	rows, err := newExportService(r).Export(context.Background())
	require.NoError(t, err)

	want := []domain.ExportRow{
		{FamilyID: "smith", FamilyName: "Smith", Kind: domain.ExportFlight, Title: "Delta DL 200"},
		{FamilyID: "jones", FamilyName: "Jones", Kind: domain.ExportFlight, Date: "2026-07-10", Time: "9:00 AM",
			Title: "Aegean A3 600", Details: "ATH - JTR, arrives 9:45 AM"},
		{FamilyID: "all", Kind: domain.ExportAccommodation, Date: "2026-07-10", Title: "Check-in", Details: "Villa Oia"},
		{FamilyID: "smith", FamilyName: "Smith", Kind: domain.ExportActivity, Date: "2026-07-12",
			Title: "Boat tour", Details: "dress: swim; bring towels"},
		{FamilyID: "jones", FamilyName: "Jones", Kind: domain.ExportTransfer, Title: "To airport", Details: "Taxi at 6am"},
		{FamilyID: "all", Kind: domain.ExportDayEvent, Date: "07-11", Time: "8:00 PM", Title: "Dinner", Details: "Ammoudi"},
		{FamilyID: "smith", FamilyName: "Smith", Kind: domain.ExportDayEvent, Date: "07-11", Title: "Spa"},
		{FamilyID: "jones", FamilyName: "Jones", Kind: domain.ExportDayEvent, Date: "07-12", Time: "7:00 AM", Title: "Hike"},
	}
	assert.Equal(t, want, rows)
}
