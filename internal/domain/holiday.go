package domain

import (
	"sort"
	"time"
)

// Holiday is one public holiday.
type Holiday struct {
	Date time.Time // midnight UTC
	Name string
}

// HolidaySet is a membership index of holiday dates keyed by EpochDays.
type HolidaySet map[int32]string

// NewHolidaySet indexes holidays by date. Later duplicates are ignored.
func NewHolidaySet(holidays []Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		k := EpochDays(h.Date)
		if _, ok := set[k]; !ok {
			set[k] = h.Name
		}
	}
	return set
}

// Contains reports whether the calendar date of t is a holiday.
func (s HolidaySet) Contains(t time.Time) bool {
	_, ok := s[EpochDays(t)]
	return ok
}

const (
	nameSubstitute = "Substitute Holiday"
	nameCitizens   = "National Holiday"
)

// JapaneseHolidays returns the public holidays of Japan for the inclusive year
// range, sorted by date with one entry per date. The rules follow the Public
// Holiday Act as amended through 2018 (Happy Monday system, Mountain Day, the
// 2019 enthronement and the 2020/2021 Olympic relocations); equinox days use
// the astronomical approximation valid for 1980-2099.
func JapaneseHolidays(startYear, endYear int) []Holiday {
	var out []Holiday
	for y := startYear; y <= endYear; y++ {
		out = append(out, holidaysForYear(y)...)
	}
	return out
}

func holidaysForYear(year int) []Holiday {
	days := make(map[int32]string)
	add := func(m time.Month, d int, name string) {
		days[EpochDays(date(year, m, d))] = name
	}

	add(time.January, 1, "New Year's Day")
	add(time.January, nthWeekday(year, time.January, time.Monday, 2), "Coming of Age Day")
	add(time.February, 11, "Foundation Day")
	switch {
	case year >= 2020:
		add(time.February, 23, "Emperor's Birthday")
	case year <= 2018:
		add(time.December, 23, "Emperor's Birthday")
	}
	add(time.March, vernalEquinoxDay(year), "Vernal Equinox Day")
	add(time.April, 29, "Showa Day")
	add(time.May, 3, "Constitution Day")
	add(time.May, 4, "Greenery Day")
	add(time.May, 5, "Children's Day")

	switch year {
	case 2020:
		add(time.July, 23, "Marine Day")
		add(time.July, 24, "Sports Day")
		add(time.August, 10, "Mountain Day")
	case 2021:
		add(time.July, 22, "Marine Day")
		add(time.July, 23, "Sports Day")
		add(time.August, 8, "Mountain Day")
	default:
		add(time.July, nthWeekday(year, time.July, time.Monday, 3), "Marine Day")
		if year >= 2016 {
			add(time.August, 11, "Mountain Day")
		}
		if year >= 2020 {
			add(time.October, nthWeekday(year, time.October, time.Monday, 2), "Sports Day")
		} else {
			add(time.October, nthWeekday(year, time.October, time.Monday, 2), "Health and Sports Day")
		}
	}

	add(time.September, nthWeekday(year, time.September, time.Monday, 3), "Respect for the Aged Day")
	add(time.September, autumnalEquinoxDay(year), "Autumnal Equinox Day")
	add(time.November, 3, "Culture Day")
	add(time.November, 23, "Labor Thanksgiving Day")

	if year == 2019 {
		add(time.May, 1, "Enthronement Day")
		add(time.October, 22, "Enthronement Ceremony Day")
	}

	addCitizensHolidays(days)
	addSubstituteHolidays(days)

	keys := make([]int32, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]Holiday, 0, len(keys))
	for _, k := range keys {
		out = append(out, Holiday{Date: FromEpochDays(k), Name: days[k]})
	}
	return out
}

// addCitizensHolidays marks an ordinary day sandwiched between two national
// holidays, e.g. 2019-04-30 between Showa Day and Enthronement Day.
func addCitizensHolidays(days map[int32]string) {
	var sandwiched []int32
	for k := range days {
		mid := k + 1
		if _, ok := days[mid]; ok {
			continue
		}
		if _, ok := days[mid+1]; !ok {
			continue
		}
		if FromEpochDays(mid).Weekday() == time.Sunday {
			continue
		}
		sandwiched = append(sandwiched, mid)
	}
	for _, k := range sandwiched {
		days[k] = nameCitizens
	}
}

// addSubstituteHolidays moves every Sunday holiday to the next day that is
// not already a holiday.
func addSubstituteHolidays(days map[int32]string) {
	var sundays []int32
	for k := range days {
		if FromEpochDays(k).Weekday() == time.Sunday {
			sundays = append(sundays, k)
		}
	}
	sort.Slice(sundays, func(i, j int) bool { return sundays[i] < sundays[j] })

	for _, k := range sundays {
		next := k + 1
		for {
			if _, ok := days[next]; !ok {
				break
			}
			next++
		}
		days[next] = nameSubstitute
	}
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) int {
	first := date(year, month, 1).Weekday()
	offset := (int(wd) - int(first) + 7) % 7
	return 1 + offset + (n-1)*7
}

func vernalEquinoxDay(year int) int {
	return equinoxDay(20.8431, year)
}

func autumnalEquinoxDay(year int) int {
	return equinoxDay(23.2488, year)
}

func equinoxDay(base float64, year int) int {
	n := year - 1980
	return int(base + 0.242194*float64(n) - float64(n/4))
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
