package domain

import "time"

const secondsPerDay = 24 * 60 * 60

// Time-of-day buckets, inclusive hour ranges of the local wall clock.
const (
	LateNight   = "late_night"   // 0-4
	Morning     = "morning"      // 5-8
	LateMorning = "late_morning" // 9-11
	Afternoon   = "afternoon"    // 12-16
	Evening     = "evening"      // 17-20
	Night       = "night"        // 21-23
)

// Paired categorical renderings of the calendar booleans.
const (
	DayTypeWeekend   = "weekend"
	DayTypeWeekday   = "weekDay"
	WorkTypeHoliday  = "holiday"
	WorkTypeWorkday  = "workday"
	PeakTypePeak     = "peakHour"
	PeakTypeNonPeak  = "nonPeakHour"
	timeBucketLayout = "2006010215"
)

// Calendar holds every field derived purely from an observation timestamp
// (plus holiday membership).
type Calendar struct {
	Date        int32 // days since 1970-01-01
	Year        int32
	Hour        int32
	MonthName   string
	WeekdayName string
	DayOfWeek   int32 // 0 = Sunday
	IsWeekend   bool
	IsHoliday   bool
	TimeOfDay   string
	IsPeakHour  bool
}

// DeriveCalendar computes the calendar fields of t. The wall-clock hour is
// used as recorded; no zone conversion happens.
func DeriveCalendar(t time.Time, holidays HolidaySet) Calendar {
	hour := t.Hour()
	dow := t.Weekday()
	return Calendar{
		Date:        EpochDays(t),
		Year:        int32(t.Year()),
		Hour:        int32(hour),
		MonthName:   t.Month().String(),
		WeekdayName: dow.String(),
		DayOfWeek:   int32(dow),
		IsWeekend:   dow == time.Saturday || dow == time.Sunday,
		IsHoliday:   holidays.Contains(t),
		TimeOfDay:   TimeOfDayBucket(hour),
		IsPeakHour:  IsPeakHour(hour),
	}
}

// TimeOfDayBucket maps an hour in [0,23] to its named bucket.
func TimeOfDayBucket(hour int) string {
	switch {
	case hour >= 0 && hour <= 4:
		return LateNight
	case hour >= 5 && hour <= 8:
		return Morning
	case hour >= 9 && hour <= 11:
		return LateMorning
	case hour >= 12 && hour <= 16:
		return Afternoon
	case hour >= 17 && hour <= 20:
		return Evening
	default:
		return Night
	}
}

// IsPeakHour reports whether hour falls in the morning (7-9) or evening
// (17-19) commute peak.
func IsPeakHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

// DayType renders the weekend flag.
func DayType(isWeekend bool) string {
	if isWeekend {
		return DayTypeWeekend
	}
	return DayTypeWeekday
}

// WorkType renders the holiday flag.
func WorkType(isHoliday bool) string {
	if isHoliday {
		return WorkTypeHoliday
	}
	return WorkTypeWorkday
}

// PeakType renders the peak-hour flag.
func PeakType(isPeak bool) string {
	if isPeak {
		return PeakTypePeak
	}
	return PeakTypeNonPeak
}

// TimeBucketID is the composite hourly identifier, e.g. "T2024042615".
func TimeBucketID(t time.Time) string {
	return "T" + t.Format(timeBucketLayout)
}

// StationKey is the composite station identifier, e.g. "S13101010".
func StationKey(stationID string) string {
	return "S" + stationID
}

// EpochDays returns the calendar date of t as days since 1970-01-01.
func EpochDays(t time.Time) int32 {
	y, m, d := t.Date()
	return int32(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// FromEpochDays converts days since 1970-01-01 back to midnight UTC.
func FromEpochDays(days int32) time.Time {
	return time.Unix(int64(days)*secondsPerDay, 0).UTC()
}
