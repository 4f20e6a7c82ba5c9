package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holidayNames(hs []Holiday) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Date.Format(time.DateOnly)] = h.Name
	}
	return out
}

func TestJapaneseHolidays_2019(t *testing.T) {
	names := holidayNames(JapaneseHolidays(2019, 2019))

	tests := map[string]string{
		"2019-01-01": "New Year's Day",
		"2019-01-14": "Coming of Age Day",
		"2019-02-11": "Foundation Day",
		"2019-03-21": "Vernal Equinox Day",
		"2019-04-29": "Showa Day",
		"2019-04-30": "National Holiday",
		"2019-05-01": "Enthronement Day",
		"2019-05-02": "National Holiday",
		"2019-05-03": "Constitution Day",
		"2019-05-06": "Substitute Holiday",
		"2019-07-15": "Marine Day",
		"2019-08-12": "Substitute Holiday",
		"2019-09-16": "Respect for the Aged Day",
		"2019-09-23": "Autumnal Equinox Day",
		"2019-10-14": "Health and Sports Day",
		"2019-10-22": "Enthronement Ceremony Day",
		"2019-11-04": "Substitute Holiday",
	}
	for date, want := range tests {
		assert.Equal(t, want, names[date], date)
	}

	_, ok := names["2019-12-23"]
	assert.False(t, ok, "no Emperor's Birthday in 2019")
	_, ok = names["2019-02-23"]
	assert.False(t, ok)
}

func TestJapaneseHolidays_EmperorsBirthday(t *testing.T) {
	names := holidayNames(JapaneseHolidays(2018, 2021))

	assert.Equal(t, "Emperor's Birthday", names["2018-12-23"])
	assert.Equal(t, "Substitute Holiday", names["2018-12-24"])
	assert.Equal(t, "Emperor's Birthday", names["2020-02-23"])
	assert.Equal(t, "Substitute Holiday", names["2020-02-24"])
	assert.Equal(t, "Emperor's Birthday", names["2021-02-23"])
}

func TestJapaneseHolidays_Olympics(t *testing.T) {
	names := holidayNames(JapaneseHolidays(2020, 2021))

	assert.Equal(t, "Marine Day", names["2020-07-23"])
	assert.Equal(t, "Sports Day", names["2020-07-24"])
	assert.Equal(t, "Mountain Day", names["2020-08-10"])
	assert.Equal(t, "Marine Day", names["2021-07-22"])
	assert.Equal(t, "Sports Day", names["2021-07-23"])
	assert.Equal(t, "Mountain Day", names["2021-08-08"])
	assert.Equal(t, "Substitute Holiday", names["2021-08-09"])

	_, ok := names["2020-10-12"]
	assert.False(t, ok, "Sports Day moved out of October in 2020")
}

func TestJapaneseHolidays_SortedAndUnique(t *testing.T) {
	hs := JapaneseHolidays(2018, 2025)
	require.NotEmpty(t, hs)

	seen := make(map[int32]bool)
	for i, h := range hs {
		k := EpochDays(h.Date)
		assert.False(t, seen[k], "duplicate %s", h.Date)
		seen[k] = true
		if i > 0 {
			assert.True(t, hs[i-1].Date.Before(h.Date))
		}
	}
	assert.Equal(t, 2018, hs[0].Date.Year())
	assert.Equal(t, 2025, hs[len(hs)-1].Date.Year())
}

func TestJapaneseHolidays_EmptyRange(t *testing.T) {
	assert.Empty(t, JapaneseHolidays(2025, 2024))
}

func TestHolidaySet(t *testing.T) {
	set := NewHolidaySet([]Holiday{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Name: "New Year's Day"},
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Name: "duplicate"},
	})

	assert.Len(t, set, 1)
	assert.Equal(t, "New Year's Day", set[EpochDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))])
	assert.True(t, set.Contains(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)))
	assert.False(t, set.Contains(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.False(t, HolidaySet(nil).Contains(time.Now()))
}
