// Package domain models hourly Japanese air-quality observations and the
// features engineered from them.
//
// # Data Source
//
// Observations are hourly readings published per monitoring station by the
// national air-quality network. Each row carries a station identifier, a
// wall-clock timestamp and sixteen measurements. Station metadata arrives as
// a separate file whose geolocation column is free text.
//
// # Measurement Conventions
//
// Units differ per field:
//
//	SO2, NO, NO2, NOx, Ox, CO: ppm
//	NMHC, CH4, THC:            ppmC
//	SPM:                       mg/m³
//	PM2.5:                     µg/m³
//	SP: hPa   WD: degrees   WS: m/s   TEMP: °C   HUM: %
//
// Every measurement is nullable. Nulls propagate through every derived value
// and label; nothing defaults to a category.
//
// Timestamps:
//
//	Recorded in local wall-clock time with no zone. They are carried as UTC
//	values so the recorded hour is the hour used for calendar fields. The
//	day-of-week index follows 0 = Sunday; Saturday and Sunday are the weekend.
//
// Geolocation:
//
//	"(35.68, 139.69)" or "139.69,35.68". When exactly one number exceeds 90 in
//	absolute value it is the longitude; otherwise the pair is (lat, lon).
//	See [ParseGeolocation].
//
// # Labeling
//
// Each labeled field maps to one of five ordered levels (safe, moderate,
// slightly_unhealthy, unhealthy, very_unhealthy). Comparisons are always
// "value <= bound", so a value equal to a bound belongs to the lower tier.
//
//	Ratio (value / guideline, tiers 1 2 3 4):
//	  SO2 hourly 0.10 | Ox hourly 0.06 | SPM hourly 0.20
//	  CO 8-hour mean 20.0 | PM2.5 daily mean 35.0
//	Fixed cut points:
//	  NO2 daily mean 0.04 | 0.06 | 0.12 | 0.18
//	Station quantiles (q20 q40 q60 q80 of the station's own history):
//	  NO, NOx, NMHC, CH4, THC, SP, WS, TEMP, HUM
//
// Rules are expressed as a small expression tree ([Tiered], [Div], [Col],
// [Const], [Breakpoint]) so each boundary is testable without an engine.
//
// # Holidays
//
// [JapaneseHolidays] computes the public holiday calendar in-process,
// including substitute and citizens' holidays.
package domain
