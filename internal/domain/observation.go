package domain

import (
	"errors"
	"time"
)

var (
	// ErrMissingColumn is returned when a required input column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrMalformedValue is returned when a raw field cannot be normalized to its schema type.
	ErrMalformedValue = errors.New("malformed value")
)

// Field names a measurement column shared by the raw input, the columnar
// store, and the feature table.
type Field string

// Pollutant fields.
const (
	SO2  Field = "so2"
	NO   Field = "no"
	NO2  Field = "no2"
	NOx  Field = "nox"
	CO   Field = "co"
	Ox   Field = "ox"
	NMHC Field = "nmhc"
	CH4  Field = "ch4"
	THC  Field = "thc"
	SPM  Field = "spm"
	PM25 Field = "pm25"
)

// Meteorological fields.
const (
	SP   Field = "sp"
	WD   Field = "wd"
	WS   Field = "ws"
	Temp Field = "temp"
	Hum  Field = "hum"
)

// MeasurementFields lists every measurement column in raw-file order.
var MeasurementFields = []Field{
	SO2, NO, NO2, NOx, CO, Ox, NMHC, CH4, THC, SPM, PM25,
	SP, WD, WS, Temp, Hum,
}

// Raw observation identity columns.
const (
	ColumnStationID = "stationid"
	ColumnObsDate   = "obsdate"
)

// ObservationColumns returns the fixed raw observation header, identity columns first.
func ObservationColumns() []string {
	cols := make([]string, 0, len(MeasurementFields)+2)
	cols = append(cols, ColumnStationID, ColumnObsDate)
	for _, f := range MeasurementFields {
		cols = append(cols, string(f))
	}
	return cols
}

// Observation is one hourly reading for one station. ObsDate is a wall-clock
// timestamp with no zone semantics; it is carried as UTC so that calendar
// fields derive from the recorded hour unchanged.
type Observation struct {
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
}

// Value returns the measurement stored under f, or nil for unknown fields.
func (o *Observation) Value(f Field) *float64 {
	if p := o.slot(f); p != nil {
		return *p
	}
	return nil
}

// Set stores v under f. Unknown fields are ignored.
func (o *Observation) Set(f Field, v *float64) {
	if p := o.slot(f); p != nil {
		*p = v
	}
}

func (o *Observation) slot(f Field) **float64 {
	switch f {
	case SO2:
		return &o.SO2
	case NO:
		return &o.NO
	case NO2:
		return &o.NO2
	case NOx:
		return &o.NOx
	case CO:
		return &o.CO
	case Ox:
		return &o.Ox
	case NMHC:
		return &o.NMHC
	case CH4:
		return &o.CH4
	case THC:
		return &o.THC
	case SPM:
		return &o.SPM
	case PM25:
		return &o.PM25
	case SP:
		return &o.SP
	case WD:
		return &o.WD
	case WS:
		return &o.WS
	case Temp:
		return &o.Temp
	case Hum:
		return &o.Hum
	default:
		return nil
	}
}

// Float returns a pointer to a copy of v.
func Float(v float64) *float64 { return &v }

// String returns a pointer to a copy of s.
func String(s string) *string { return &s }
