package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/family-trip/internal/domain"
)

func families() []domain.Family {
	return []domain.Family{
		{ID: "paul-karen", Name: "Paul and Karen"},
		{ID: "lance-allison", Name: "Lance and Allison"},
	}
}

func TestDefaultTrip_BackfillsEveryFamily(t *testing.T) {
	trip := domain.DefaultTrip(families())

	for _, id := range []string{"paul-karen", "lance-allison"} {
		assert.Equal(t, []domain.FlightInfo{{}}, trip.Flights[id])
		assert.Equal(t, []domain.AccommodationEntry{{}}, trip.Accommodations[id])
		assert.NotNil(t, trip.Activities[id])
		assert.Contains(t, trip.Transfers, id)
		assert.Contains(t, trip.FlightDates, id)
	}
	// "all" only applies to accommodations and activities.
	assert.Contains(t, trip.Accommodations, domain.AllFamilies)
	assert.Contains(t, trip.Activities, domain.AllFamilies)
	assert.NotContains(t, trip.Flights, domain.AllFamilies)
	assert.Equal(t, domain.DefaultSchedule, trip.Schedule)
}

func TestBackfill_KeepsExistingValues(t *testing.T) {
	trip := domain.TripRecord{
		Flights: domain.FamilyMap[[]domain.FlightInfo]{
			"paul-karen": {{Airline: "Delta"}},
		},
	}

	trip.Backfill([]string{"paul-karen", "lance-allison"})

	assert.Equal(t, "Delta", trip.Flights["paul-karen"][0].Airline)
	assert.Equal(t, []domain.FlightInfo{{}}, trip.Flights["lance-allison"])
	assert.NotNil(t, trip.ScheduleByDay)
	assert.NotNil(t, trip.DayItems)
}

func TestFamilyMap_At(t *testing.T) {
	m := domain.FamilyMap[domain.AirportTransfers]{}

	got := m.At("x", func() domain.AirportTransfers { return domain.AirportTransfers{ToAirport: "taxi"} })

	assert.Equal(t, "taxi", got.ToAirport)
	assert.Contains(t, m, "x", "At stores the default it returns")

	var nilMap domain.FamilyMap[int]
	assert.Equal(t, 7, nilMap.At("y", func() int { return 7 }))
}

func TestClone_SharesNothing(t *testing.T) {
	orig := domain.DefaultTrip(families())
	orig.ScheduleByDay["2026-07-10"] = domain.DaySchedule{
		GroupEvents:  []domain.ScheduleEvent{{Title: "Boat"}},
		FamilyEvents: map[string][]domain.ScheduleEvent{"paul-karen": {{Title: "Nap"}}},
	}

	cp := orig.Clone()
	cp.Flights["paul-karen"][0].Airline = "changed"
	cp.ScheduleByDay["2026-07-10"].FamilyEvents["paul-karen"][0].Title = "changed"
	cp.Families[0].Name = "changed"

	assert.Empty(t, orig.Flights["paul-karen"][0].Airline)
	assert.Equal(t, "Nap", orig.ScheduleByDay["2026-07-10"].FamilyEvents["paul-karen"][0].Title)
	assert.Equal(t, "Paul and Karen", orig.Families[0].Name)
}

func TestFamily_NameParts(t *testing.T) {
	f := domain.Family{Name: "Noah  and Cori"}

	require.Equal(t, []string{"Noah", "Cori"}, f.NameParts())
	assert.Equal(t, []string{"Solo"}, domain.Family{Name: "Solo"}.NameParts())
}

func TestPartial_IsEmpty(t *testing.T) {
	assert.True(t, domain.Partial{}.IsEmpty())
	assert.False(t, domain.Partial{GettingAround: domain.String("")}.IsEmpty())
}
