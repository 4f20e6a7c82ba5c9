// Package export projects the wide feature table onto the flat, human-readable
// export schema. It selects and renames columns and formats values; it never
// computes anything, so a null source value stays null.
package export

import (
	"strconv"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// Column is one export column and the feature field it is read from.
type Column struct {
	Name   string // export header
	Source string // feature artifact column
	get    func(r *domain.FeatureRecord) *string
}

// Columns is the export schema in output order.
var Columns = []Column{
	text("TID", "tid", func(r *domain.FeatureRecord) string { return r.TID }),
	text("SID", "sid", func(r *domain.FeatureRecord) string { return r.SID }),
	nullable("Prefecture", "prefecture_en", func(r *domain.FeatureRecord) *string { return r.Prefecture }),
	nullable("City", "city_en", func(r *domain.FeatureRecord) *string { return r.City }),
	nullable("Street", "street_en", func(r *domain.FeatureRecord) *string { return r.Street }),
	nullable("Pincode", "pincode", func(r *domain.FeatureRecord) *string { return r.Pincode }),

	integer("Hour", "hour", func(r *domain.FeatureRecord) int32 { return r.Hour }),
	integer("Year", "year", func(r *domain.FeatureRecord) int32 { return r.Year }),
	text("Month", "month_name", func(r *domain.FeatureRecord) string { return r.MonthName }),
	text("Day", "weekday_name", func(r *domain.FeatureRecord) string { return r.WeekdayName }),
	text("Time", "time_of_day", func(r *domain.FeatureRecord) string { return r.TimeOfDay }),
	text("dayType", "dayType", func(r *domain.FeatureRecord) string { return r.DayType }),
	text("workType", "workType", func(r *domain.FeatureRecord) string { return r.WorkType }),
	text("tHT", "tHT", func(r *domain.FeatureRecord) string { return r.PeakType }),

	measure("PM2.5", domain.PM25),
	measure("SO2", domain.SO2),
	measure("NO", domain.NO),
	measure("NO2", domain.NO2),
	measure("NOx", domain.NOx),
	measure("CO", domain.CO),
	measure("Ox", domain.Ox),
	measure("NMHC", domain.NMHC),
	measure("CH4", domain.CH4),
	measure("THC", domain.THC),
	measure("SPM", domain.SPM),

	measure("SP", domain.SP),
	measure("WD", domain.WD),
	nullable("WD_dir", "wd_dir", func(r *domain.FeatureRecord) *string { return r.WDDir }),
	measure("WS", domain.WS),
	measure("TEMP", domain.Temp),
	measure("HUM", domain.Hum),

	label("PM2.5_label", domain.PM25),
	label("SO2_label", domain.SO2),
	label("NO_label", domain.NO),
	label("NO2_label", domain.NO2),
	label("NOx_label", domain.NOx),
	label("CO_label", domain.CO),
	label("Ox_label", domain.Ox),
	label("NMHC_label", domain.NMHC),
	label("CH4_label", domain.CH4),
	label("THC_label", domain.THC),
	label("SPM_label", domain.SPM),

	label("SP_label", domain.SP),
	label("WS_label", domain.WS),
	label("TEMP_label", domain.Temp),
	label("HUM_label", domain.Hum),
}

// Header returns the export column names in order.
func Header() []string {
	h := make([]string, len(Columns))
	for i, c := range Columns {
		h[i] = c.Name
	}
	return h
}

// Project renders one feature record as an export row. A nil cell is null.
func Project(r *domain.FeatureRecord) []*string {
	row := make([]*string, len(Columns))
	for i, c := range Columns {
		row[i] = c.get(r)
	}
	return row
}

// FormatFloat renders a measurement in its shortest round-tripping form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func text(name, source string, get func(*domain.FeatureRecord) string) Column {
	return Column{Name: name, Source: source, get: func(r *domain.FeatureRecord) *string {
		return domain.String(get(r))
	}}
}

func nullable(name, source string, get func(*domain.FeatureRecord) *string) Column {
	return Column{Name: name, Source: source, get: get}
}

func integer(name, source string, get func(*domain.FeatureRecord) int32) Column {
	return Column{Name: name, Source: source, get: func(r *domain.FeatureRecord) *string {
		return domain.String(strconv.FormatInt(int64(get(r)), 10))
	}}
}

func measure(name string, f domain.Field) Column {
	return Column{Name: name, Source: string(f), get: func(r *domain.FeatureRecord) *string {
		v := r.Value(f)
		if v == nil {
			return nil
		}
		return domain.String(FormatFloat(*v))
	}}
}

func label(name string, f domain.Field) Column {
	return Column{Name: name, Source: string(f) + "_label", get: func(r *domain.FeatureRecord) *string {
		return r.Label(f)
	}}
}
