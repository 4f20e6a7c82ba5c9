package domain

import "time"

// FeatureRecord is one engineered row of the wide feature artifact: the
// observation, its station metadata, calendar fields, window aggregates,
// derived identifiers and one label per labeled field.
type FeatureRecord struct {
	StationID string    `parquet:"stationid"`
	ObsDate   time.Time `parquet:"obsdate,timestamp(microsecond)"`

	SO2  *float64 `parquet:"so2"`
	NO   *float64 `parquet:"no"`
	NO2  *float64 `parquet:"no2"`
	NOx  *float64 `parquet:"nox"`
	CO   *float64 `parquet:"co"`
	Ox   *float64 `parquet:"ox"`
	NMHC *float64 `parquet:"nmhc"`
	CH4  *float64 `parquet:"ch4"`
	THC  *float64 `parquet:"thc"`
	SPM  *float64 `parquet:"spm"`
	PM25 *float64 `parquet:"pm25"`

	SP   *float64 `parquet:"sp"`
	WD   *float64 `parquet:"wd"`
	WS   *float64 `parquet:"ws"`
	Temp *float64 `parquet:"temp"`
	Hum  *float64 `parquet:"hum"`

	StationName *string  `parquet:"stationname"`
	Prefecture  *string  `parquet:"prefecture_en"`
	City        *string  `parquet:"city_en"`
	Street      *string  `parquet:"street_en"`
	Pincode     *string  `parquet:"pincode"`
	Lat         *float64 `parquet:"lat"`
	Lon         *float64 `parquet:"lon"`

	Date        int32  `parquet:"date,date"`
	Year        int32  `parquet:"year"`
	Hour        int32  `parquet:"hour"`
	MonthName   string `parquet:"month_name"`
	WeekdayName string `parquet:"weekday_name"`
	DayOfWeek   int32  `parquet:"dow"`
	IsWeekend   bool   `parquet:"is_weekend"`
	IsHoliday   bool   `parquet:"is_holiday"`
	TimeOfDay   string `parquet:"time_of_day"`
	IsPeakHour  bool   `parquet:"is_peak_hour"`

	CORoll8h      *float64 `parquet:"co_roll8h"`
	PM25DailyMean *float64 `parquet:"pm25_daily_mean"`
	NO2DailyMean  *float64 `parquet:"no2_daily_mean"`

	TID      string  `parquet:"tid"`
	SID      string  `parquet:"sid"`
	DayType  string  `parquet:"dayType"`
	WorkType string  `parquet:"workType"`
	PeakType string  `parquet:"tHT"`
	WDDir    *string `parquet:"wd_dir"`

	PM25Label *string `parquet:"pm25_label"`
	SO2Label  *string `parquet:"so2_label"`
	NOLabel   *string `parquet:"no_label"`
	NO2Label  *string `parquet:"no2_label"`
	NOxLabel  *string `parquet:"nox_label"`
	COLabel   *string `parquet:"co_label"`
	OxLabel   *string `parquet:"ox_label"`
	NMHCLabel *string `parquet:"nmhc_label"`
	CH4Label  *string `parquet:"ch4_label"`
	THCLabel  *string `parquet:"thc_label"`
	SPMLabel  *string `parquet:"spm_label"`
	SPLabel   *string `parquet:"sp_label"`
	WSLabel   *string `parquet:"ws_label"`
	TempLabel *string `parquet:"temp_label"`
	HumLabel  *string `parquet:"hum_label"`
}

// NewFeatureRecord seeds a feature row with the observation's identity and
// measurements. Every pointer is copied so the row never aliases obs.
func NewFeatureRecord(obs Observation) FeatureRecord {
	r := FeatureRecord{StationID: obs.StationID, ObsDate: obs.ObsDate}
	for _, f := range MeasurementFields {
		r.Set(f, copyFloat(obs.Value(f)))
	}
	return r
}

// ApplyStation copies the station's name, address and coordinates.
func (r *FeatureRecord) ApplyStation(s StationRecord) {
	r.StationName = s.Name
	r.Prefecture = s.Prefecture
	r.City = s.City
	r.Street = s.Street
	r.Pincode = s.Pincode
	r.Lat = s.Lat
	r.Lon = s.Lon
}

// ApplyCalendar copies the calendar fields and their categorical renderings.
func (r *FeatureRecord) ApplyCalendar(c Calendar) {
	r.Date = c.Date
	r.Year = c.Year
	r.Hour = c.Hour
	r.MonthName = c.MonthName
	r.WeekdayName = c.WeekdayName
	r.DayOfWeek = c.DayOfWeek
	r.IsWeekend = c.IsWeekend
	r.IsHoliday = c.IsHoliday
	r.TimeOfDay = c.TimeOfDay
	r.IsPeakHour = c.IsPeakHour
	r.TID = TimeBucketID(r.ObsDate)
	r.SID = StationKey(r.StationID)
	r.DayType = DayType(c.IsWeekend)
	r.WorkType = WorkType(c.IsHoliday)
	r.PeakType = PeakType(c.IsPeakHour)
}

// Value returns a measurement or derived value of the row.
func (r *FeatureRecord) Value(f Field) *float64 {
	if p := r.slot(f); p != nil {
		return *p
	}
	return nil
}

// Set stores v under a measurement or derived field. Unknown fields are ignored.
func (r *FeatureRecord) Set(f Field, v *float64) {
	if p := r.slot(f); p != nil {
		*p = v
	}
}

// Label returns the label stored for f.
func (r *FeatureRecord) Label(f Field) *string {
	if p := r.labelSlot(f); p != nil {
		return *p
	}
	return nil
}

// SetLabel stores the label for f. Fields without a label column are ignored.
func (r *FeatureRecord) SetLabel(f Field, v *string) {
	if p := r.labelSlot(f); p != nil {
		*p = v
	}
}

func (r *FeatureRecord) slot(f Field) **float64 {
	switch f {
	case SO2:
		return &r.SO2
	case NO:
		return &r.NO
	case NO2:
		return &r.NO2
	case NOx:
		return &r.NOx
	case CO:
		return &r.CO
	case Ox:
		return &r.Ox
	case NMHC:
		return &r.NMHC
	case CH4:
		return &r.CH4
	case THC:
		return &r.THC
	case SPM:
		return &r.SPM
	case PM25:
		return &r.PM25
	case SP:
		return &r.SP
	case WD:
		return &r.WD
	case WS:
		return &r.WS
	case Temp:
		return &r.Temp
	case Hum:
		return &r.Hum
	case CORoll8h:
		return &r.CORoll8h
	case PM25DailyMean:
		return &r.PM25DailyMean
	case NO2DailyMean:
		return &r.NO2DailyMean
	default:
		return nil
	}
}

func (r *FeatureRecord) labelSlot(f Field) **string {
	switch f {
	case PM25:
		return &r.PM25Label
	case SO2:
		return &r.SO2Label
	case NO:
		return &r.NOLabel
	case NO2:
		return &r.NO2Label
	case NOx:
		return &r.NOxLabel
	case CO:
		return &r.COLabel
	case Ox:
		return &r.OxLabel
	case NMHC:
		return &r.NMHCLabel
	case CH4:
		return &r.CH4Label
	case THC:
		return &r.THCLabel
	case SPM:
		return &r.SPMLabel
	case SP:
		return &r.SPLabel
	case WS:
		return &r.WSLabel
	case Temp:
		return &r.TempLabel
	case Hum:
		return &r.HumLabel
	default:
		return nil
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
