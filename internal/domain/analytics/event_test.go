package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowStart(t *testing.T) {
	today := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), WindowStart(today))

	today = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), WindowStart(today))
}

func TestMonthsCoverWindow(t *testing.T) {
	today := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	months := Months(WindowStart(today), today)

	assert.Len(t, months, 13)
	assert.Equal(t, "2025-10", months[0])
	assert.Equal(t, "2026-10", months[12])
}

func TestMonthsAcrossYearEnd(t *testing.T) {
	from := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2025-11", "2025-12", "2026-01", "2026-02"}, Months(from, today))
}

func TestBuildSeries(t *testing.T) {
	months := []string{"2026-08", "2026-09", "2026-10"}
	s := BuildSeries(months, []MonthlyCount{
		{Type: EventView, Month: "2026-08", Count: 4},
		{Type: EventView, Month: "2026-10", Count: 1},
		{Type: EventLogin, Month: "2026-09", Count: 7},
		{Type: EventAdd, Month: "2025-01", Count: 9},
		{Type: "unknown", Month: "2026-09", Count: 3},
	})

	assert.Equal(t, months, s.Labels)
	assert.Equal(t, []int64{4, 0, 1}, s.Counts[EventView])
	assert.Equal(t, []int64{0, 7, 0}, s.Counts[EventLogin])
	assert.Equal(t, []int64{0, 0, 0}, s.Counts[EventAdd])
	assert.Equal(t, []int64{0, 0, 0}, s.Counts[EventPDF])
	assert.Len(t, s.Counts, len(EventTypes))
}

func TestNewEventOptionalIDs(t *testing.T) {
	at := time.Now()

	e := NewEvent(EventLogin, 3, 0, at)
	if assert.NotNil(t, e.UserID) {
		assert.Equal(t, uint(3), *e.UserID)
	}
	assert.Nil(t, e.BookID)

	e = NewEvent(EventView, 0, 8, at)
	assert.Nil(t, e.UserID)
	if assert.NotNil(t, e.BookID) {
		assert.Equal(t, uint(8), *e.BookID)
	}
}
