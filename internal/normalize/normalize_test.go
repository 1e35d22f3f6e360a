package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/normalize"
)

func TestFlight(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want domain.FlightInfo
	}{
		{"legacy string", "Delta", domain.FlightInfo{Airline: "Delta"}},
		{"object", map[string]any{
			"airline":          "Aegean",
			"flightNumber":     "A3 600",
			"departureAirport": "ATH",
			"departureTime":    "10:05 AM",
			"extra":            "ignored",
		}, domain.FlightInfo{Airline: "Aegean", FlightNumber: "A3 600", DepartureAirport: "ATH", DepartureTime: "10:05 AM"}},
		{"wrong typed field", map[string]any{"airline": 42.0}, domain.FlightInfo{}},
		{"nil", nil, domain.FlightInfo{}},
		{"number", 7.0, domain.FlightInfo{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalize.Flight(tc.in))
		})
	}
}

func TestFlights(t *testing.T) {
	t.Run("single legacy value", func(t *testing.T) {
		assert.Equal(t, []domain.FlightInfo{{Airline: "Delta"}}, normalize.Flights("Delta"))
	})

	t.Run("empty list falls back to one blank flight", func(t *testing.T) {
		assert.Equal(t, []domain.FlightInfo{{}}, normalize.Flights([]any{}))
	})

	t.Run("list truncated", func(t *testing.T) {
		list := make([]any, 7)
		for i := range list {
			list[i] = map[string]any{"flightNumber": string(rune('A' + i))}
		}
		got := normalize.Flights(list)
		require.Len(t, got, domain.MaxFlightsPerFamily)
		assert.Equal(t, "A", got[0].FlightNumber)
		assert.Equal(t, "E", got[4].FlightNumber)
	})

	t.Run("mixed list", func(t *testing.T) {
		got := normalize.Flights([]any{"Delta", map[string]any{"airline": "KLM"}, nil})
		assert.Equal(t, []domain.FlightInfo{{Airline: "Delta"}, {Airline: "KLM"}, {}}, got)
	})
}

func TestAccommodations_Modern(t *testing.T) {
	doc := map[string]any{
		"accommodations": map[string]any{
			"fam1": []any{map[string]any{"checkIn": "07-09", "details": "Villa"}},
			"all":  []any{},
		},
	}

	got := normalize.Accommodations(doc)

	assert.Equal(t, []domain.AccommodationEntry{{CheckIn: "07-09", Details: "Villa"}}, got["fam1"])
	assert.Equal(t, []domain.AccommodationEntry{{}}, got["all"])
}

func TestAccommodations_LegacyLocationsFold(t *testing.T) {
	doc := map[string]any{
		"accommodationSantorini":        map[string]any{"fam1": "Hotel A"},
		"accommodationSantoriniCheckIn": map[string]any{"fam1": "07-10"},
		"accommodationCrete": map[string]any{
			"fam1": []any{map[string]any{"checkIn": "07-20", "details": "Hotel B"}},
		},
		"accommodationCreteCheckIn": map[string]any{"fam1": "ignored for lists"},
	}

	got := normalize.Accommodations(doc)

	assert.Equal(t, []domain.AccommodationEntry{
		{CheckIn: "07-10", Details: "Hotel A"},
		{CheckIn: "07-20", Details: "Hotel B"},
	}, got["fam1"])
}

func TestAccommodations_ModernWinsOverLegacy(t *testing.T) {
	doc := map[string]any{
		"accommodations":         map[string]any{"fam1": []any{map[string]any{"details": "New"}}},
		"accommodationSantorini": map[string]any{"fam1": "Old", "fam2": "Other"},
		"accommodation":          map[string]any{"fam2": "Ancient", "fam3": "Only v0"},
	}

	got := normalize.Accommodations(doc)

	assert.Equal(t, []domain.AccommodationEntry{{Details: "New"}}, got["fam1"])
	assert.Equal(t, []domain.AccommodationEntry{{Details: "Other"}}, got["fam2"], "v0 ignored when a location has data")
	assert.Equal(t, []domain.AccommodationEntry{{Details: "Only v0"}}, got["fam3"])
}

func TestAccommodations_Truncated(t *testing.T) {
	five := func(prefix string) []any {
		out := make([]any, 0, 6)
		for i := range 6 {
			out = append(out, map[string]any{"details": prefix + string(rune('0'+i))})
		}
		return out
	}
	doc := map[string]any{
		"accommodationSantorini": map[string]any{"fam1": five("s")},
		"accommodationCrete":     map[string]any{"fam1": five("c")},
	}

	got := normalize.Accommodations(doc)["fam1"]

	require.Len(t, got, domain.MaxAccommodationsPerFamily)
	assert.Equal(t, "s0", got[0].Details)
	assert.Equal(t, "c3", got[9].Details)
}

func TestAccommodations_NoData(t *testing.T) {
	assert.Nil(t, normalize.Accommodations(map[string]any{}))
	assert.Nil(t, normalize.Accommodations(map[string]any{"accommodations": "garbage"}))
}

func TestPartial_ScalarsAndAbsence(t *testing.T) {
	p := normalize.Partial(map[string]any{
		"tripStartDate":    "2026-07-01",
		"tripEndDate":      nil,
		"gettingAround":    "",
		"importantNumbers": 112.0,
		"unknown":          "x",
	})

	require.NotNil(t, p.TripStartDate)
	assert.Equal(t, "2026-07-01", *p.TripStartDate)
	assert.Nil(t, p.TripEndDate, "null is not provided")
	require.NotNil(t, p.GettingAround, "empty string is provided")
	assert.Empty(t, *p.GettingAround)
	assert.Nil(t, p.ImportantNumbers, "wrong type is not provided")
	assert.Nil(t, p.Flights)
}

func TestPartial_Empty(t *testing.T) {
	assert.True(t, normalize.Partial(map[string]any{}).IsEmpty())
	assert.True(t, normalize.Partial(map[string]any{"flights": "bad", "schedule": []any{}}).IsEmpty())
}

func TestPartial_Collections(t *testing.T) {
	p := normalize.Partial(map[string]any{
		"families": []any{
			map[string]any{"id": "fam1", "name": "Ann and Bob", "members": []any{map[string]any{"name": "Ann"}}},
			map[string]any{"id": "all"},
			map[string]any{"name": "no id"},
		},
		"flights":     map[string]any{"fam1": "Delta", "fam2": nil},
		"activities":  map[string]any{"all": []any{map[string]any{"activity": "Party"}}, "fam1": "bad"},
		"transfers":   map[string]any{"fam1": map[string]any{"toAirport": "taxi"}},
		"flightDates": map[string]any{"fam1": map[string]any{"departure": "07-09"}},
		"schedule":    []any{map[string]any{"title": "Boat"}},
		"scheduleByDay": map[string]any{
			"2026-07-10": map[string]any{
				"location":     "crete",
				"familyEvents": map[string]any{"fam1": []any{map[string]any{"title": "Dinner"}}, "fam2": "bad"},
			},
		},
		"dayItems":       map[string]any{"07-10": []any{map[string]any{"familyId": "fam1", "activity": "Hike"}}},
		"importedImages": []any{map[string]any{"name": "a.jpg", "base64": "AA=="}, map[string]any{"name": "empty"}},
	})

	require.Len(t, p.Families, 1)
	assert.Equal(t, "fam1", p.Families[0].ID)
	assert.Equal(t, []domain.FamilyMember{{Name: "Ann"}}, p.Families[0].Members)

	assert.Equal(t, []domain.FlightInfo{{Airline: "Delta"}}, p.Flights["fam1"])
	_, ok := p.Flights["fam2"]
	assert.False(t, ok, "null flight value is not provided")

	assert.Equal(t, "Party", p.Activities["all"][0].Activity)
	assert.NotContains(t, p.Activities, "fam1")
	assert.Equal(t, "taxi", p.Transfers["fam1"].ToAirport)
	assert.Equal(t, "07-09", p.FlightDates["fam1"].Departure)
	assert.Equal(t, []domain.ScheduleEvent{{Title: "Boat"}}, p.Schedule)

	day := p.ScheduleByDay["2026-07-10"]
	assert.Equal(t, "crete", day.Location)
	assert.Equal(t, []domain.ScheduleEvent{}, day.GroupEvents)
	assert.Equal(t, map[string][]domain.ScheduleEvent{"fam1": {{Title: "Dinner"}}}, day.FamilyEvents)

	assert.Equal(t, "Hike", p.DayItems["07-10"][0].Activity)
	require.NotNil(t, p.ImportedImages)
	assert.Equal(t, []domain.ImportedImage{{Name: "a.jpg", Base64: "AA=="}}, *p.ImportedImages)
}

func TestDecodePartial_RejectsNonObject(t *testing.T) {
	for _, body := range []string{"", "[]", "null", `"x"`, "{bad"} {
		_, err := normalize.DecodePartial([]byte(body))
		assert.ErrorIs(t, err, domain.ErrValidation, "body %q", body)
	}
}

func TestFieldPartial(t *testing.T) {
	p, err := normalize.FieldPartial("flights", map[string][]domain.FlightInfo{
		"fam1": {{Airline: "Aegean"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.FlightInfo{{Airline: "Aegean"}}, p.Flights["fam1"])

	p, err = normalize.FieldPartial("gettingAround", "Ferry")
	require.NoError(t, err)
	require.NotNil(t, p.GettingAround)
	assert.Equal(t, "Ferry", *p.GettingAround)

	_, err = normalize.FieldPartial("nope", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRecord_BackfillsLegacyDocument(t *testing.T) {
	fams := []domain.Family{{ID: "fam1", Name: "Ann and Bob"}, {ID: "fam2", Name: "Cat and Dan"}}
	raw := []byte(`{
		"tripStartDate": "2026-07-01",
		"flights": {"fam1": "Delta"},
		"accommodation": {"fam2": "Beach house"}
	}`)

	rec, err := normalize.Record(raw, fams)
	require.NoError(t, err)

	assert.Equal(t, "2026-07-01", rec.TripStartDate)
	assert.Equal(t, domain.DefaultTripEndDate, rec.TripEndDate)
	assert.Equal(t, fams, rec.Families)
	assert.Equal(t, []domain.FlightInfo{{Airline: "Delta"}}, rec.Flights["fam1"])
	assert.Equal(t, []domain.FlightInfo{{}}, rec.Flights["fam2"])
	assert.Equal(t, []domain.AccommodationEntry{{Details: "Beach house"}}, rec.Accommodations["fam2"])
	assert.Equal(t, []domain.AccommodationEntry{{}}, rec.Accommodations["all"])
	assert.Equal(t, []domain.ActivityItem{}, rec.Activities["all"])
	assert.Equal(t, domain.AirportTransfers{}, rec.Transfers["fam1"])
	assert.Equal(t, domain.DefaultSchedule, rec.Schedule)
}

func TestRecord_StoredRosterWins(t *testing.T) {
	raw := []byte(`{"families":[{"id":"solo","name":"Sam"}]}`)

	rec, err := normalize.Record(raw, []domain.Family{{ID: "fam1"}})
	require.NoError(t, err)

	require.Len(t, rec.Families, 1)
	assert.Equal(t, "solo", rec.Families[0].ID)
	assert.Contains(t, rec.Flights, "solo")
	// Keys for the default roster survive; backfill never removes data.
	assert.Contains(t, rec.Flights, "fam1")
}
