package csvio

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

const obsHeader = "stationid,obsdate,so2,no,no2,nox,co,ox,nmhc,ch4,thc,spm,pm25,sp,wd,ws,temp,hum\n"

func TestObservationReader(t *testing.T) {
	input := obsHeader +
		"13101010,2024-04-26 15:00:00,0.002,0.001,0.012,0.013,0.3,0.045,0.1,1.9,2.0,0.015,12,1013.2,225,3.1,18.5,55\n" +
		"13101010,2024/04/26 16:00,,NA,NaN,null,,,,,,,,,,,,\n"

	r, err := NewObservationReader(strings.NewReader(input))
	require.NoError(t, err)

	obs, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, obs, 2)

	first := obs[0]
	assert.Equal(t, "13101010", first.StationID)
	assert.Equal(t, time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC), first.ObsDate)
	assert.Equal(t, 0.002, *first.SO2)
	assert.Equal(t, 12.0, *first.PM25)
	assert.Equal(t, 225.0, *first.WD)
	assert.Equal(t, 55.0, *first.Hum)

	second := obs[1]
	assert.Equal(t, time.Date(2024, 4, 26, 16, 0, 0, 0, time.UTC), second.ObsDate)
	for _, f := range domain.MeasurementFields {
		assert.Nil(t, second.Value(f), f)
	}
}

func TestObservationReader_HeaderNormalized(t *testing.T) {
	input := "\uFEFF StationID ,ObsDate,SO2,NO,NO2,NOX,CO,OX,NMHC,CH4,THC,SPM,PM25,SP,WD,WS,TEMP,HUM\n" +
		"1,2024-01-01,1,,,,,,,,,,,,,,,\n"

	r, err := NewObservationReader(strings.NewReader(input))
	require.NoError(t, err)
	o, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "1", o.StationID)
	assert.Equal(t, 1.0, *o.SO2)

	_, err = r.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestObservationReader_MissingColumns(t *testing.T) {
	_, err := NewObservationReader(strings.NewReader("stationid,obsdate,so2\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Contains(t, err.Error(), `"pm25"`)
	assert.Contains(t, err.Error(), `"hum"`)
}

func TestObservationReader_Malformed(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad number", "1,2024-01-01 00:00:00,abc,,,,,,,,,,,,,,,", "so2"},
		{"bad timestamp", "1,yesterday,,,,,,,,,,,,,,,,", "obsdate"},
		{"empty station", ",2024-01-01 00:00:00,,,,,,,,,,,,,,,,", "stationid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewObservationReader(strings.NewReader(obsHeader + tt.row + "\n"))
			require.NoError(t, err)

			_, err = r.ReadAll()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedValue)
			assert.Contains(t, err.Error(), "line 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestObservationReader_EmptyFile(t *testing.T) {
	_, err := NewObservationReader(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		in      string
		want    *float64
		wantErr bool
	}{
		{"12.5", domain.Float(12.5), false},
		{" -3 ", domain.Float(-3), false},
		{"", nil, false},
		{"NA", nil, false},
		{"None", nil, false},
		{"NAN", nil, false},
		{"-nan", nil, false},
		{"+NaN", nil, false},
		{"Inf", nil, true},
		{"-Infinity", nil, true},
		{"+inf", nil, true},
		{"1e400", nil, true},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMeasurement(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObservationReader_NaNIsNullAndInfIsMalformed(t *testing.T) {
	r, err := NewObservationReader(strings.NewReader(obsHeader +
		"1,2024-01-01 00:00:00,,,,,,,,,,,,,,,NAN,-nan\n"))
	require.NoError(t, err)
	o, err := r.Read()
	require.NoError(t, err)
	assert.Nil(t, o.Temp)
	assert.Nil(t, o.Hum)

	r, err = NewObservationReader(strings.NewReader(obsHeader +
		"1,2024-01-01 00:00:00,,,,,,,,,,,,,,,Inf,\n"))
	require.NoError(t, err)
	_, err = r.Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)
	assert.Contains(t, err.Error(), "temp")
}

func TestObservationWriter_RoundTrip(t *testing.T) {
	in := []domain.Observation{
		{StationID: "A", ObsDate: time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC), SO2: domain.Float(0.002), Temp: domain.Float(-3.5)},
		{StationID: "B", ObsDate: time.Date(2024, 4, 26, 16, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	w, err := NewObservationWriter(&buf)
	require.NoError(t, err)
	for _, o := range in {
		require.NoError(t, w.Write(o))
	}
	require.NoError(t, w.Flush())

	r, err := NewObservationReader(&buf)
	require.NoError(t, err)
	out, err := r.ReadAll()
	require.NoError(t, err)

	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseObsDate(t *testing.T) {
	want := time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-04-26 15:00:00",
		"2024-04-26T15:00:00",
		"2024-04-26 15:00",
		"2024/04/26 15:00:00",
		" 2024/04/26 15:00 ",
	} {
		got, err := ParseObsDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}

	got, err := ParseObsDate("2024-04-26")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseObsDate("26/04/2024")
	assert.Error(t, err)
}

func TestReadStationInfo(t *testing.T) {
	input := " StationID , StationName ,GeoLocation,extra\n" +
		"13101010,Chiyoda,\"(35.69, 139.75)\",x\n" +
		"27101010,,garbage,y\n"

	stations, err := ReadStationInfo(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []RawStation{
		{ID: "13101010", Name: "Chiyoda", Geolocation: "(35.69, 139.75)"},
		{ID: "27101010", Name: "", Geolocation: "garbage"},
	}, stations)
}

func TestReadStationInfo_MissingColumns(t *testing.T) {
	_, err := ReadStationInfo(strings.NewReader("name,lat,lon\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Contains(t, err.Error(), "stationid")
	assert.Contains(t, err.Error(), "geolocation")
}

func TestReadStationInfo_NameOptional(t *testing.T) {
	stations, err := ReadStationInfo(strings.NewReader("stationid,geolocation\n1,\"1,2\"\n"))
	require.NoError(t, err)
	require.Len(t, stations, 1)
	assert.Empty(t, stations[0].Name)
}

func TestStationTable_RoundTrip(t *testing.T) {
	in := []domain.StationRecord{
		{
			ID:         "13101010",
			Name:       domain.String("Chiyoda"),
			Prefecture: domain.String("Tokyo"),
			City:       domain.String("Chiyoda"),
			Street:     domain.String("Hibiya-dori, 1-chome"),
			Pincode:    domain.String("100-0001"),
			Lat:        domain.Float(35.69),
			Lon:        domain.Float(139.75),
		},
		{ID: "99"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteStationTable(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(),
		"stationid,stationname,prefecture_en,city_en,street_en,pincode,lat,lon\n"))

	out, err := ReadStationTable(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadStationTable_BadCoordinate(t *testing.T) {
	input := "stationid,stationname,prefecture_en,city_en,street_en,pincode,lat,lon\n1,,,,,,north,139\n"
	_, err := ReadStationTable(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	input = "stationid,stationname,prefecture_en,city_en,street_en,pincode,lat,lon\n1,,,,,,Inf,139\n"
	_, err = ReadStationTable(strings.NewReader(input))
	assert.ErrorIs(t, err, domain.ErrMalformedValue)
}

func TestCheckStationInfo(t *testing.T) {
	require.NoError(t, CheckStationInfo(strings.NewReader("StationID,GeoLocation\n")))

	err := CheckStationInfo(strings.NewReader("stationid,stationname\n"))
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Contains(t, err.Error(), "geolocation")
}

func TestHolidays_RoundTrip(t *testing.T) {
	in := domain.JapaneseHolidays(2024, 2024)

	var buf bytes.Buffer
	require.NoError(t, WriteHolidays(&buf, in))
	assert.True(t, strings.HasPrefix(buf.String(), "date,holiday_name\n2024-01-01,New Year's Day\n"))

	out, err := ReadHolidays(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadHolidays_Malformed(t *testing.T) {
	_, err := ReadHolidays(strings.NewReader("date,holiday_name\nJan 1,New Year\n"))
	assert.ErrorIs(t, err, domain.ErrMalformedValue)

	_, err = ReadHolidays(strings.NewReader("day,name\n"))
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
}

func TestTable_RoundTrip(t *testing.T) {
	header := []string{"TID", "PM2.5", "PM2.5_label"}
	rows := [][]*string{
		{domain.String("T2024010100"), domain.String("12"), domain.String("safe")},
		{domain.String("T2024010101"), nil, nil},
	}

	var buf bytes.Buffer
	w, err := NewTableWriter(&buf, header)
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())
	assert.Equal(t, 2, w.Rows())

	var got [][]*string
	gotHeader, err := ReadTable(&buf, func(row []*string) error {
		got = append(got, append([]*string(nil), row...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, header, gotHeader)
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTableWriter_WidthMismatch(t *testing.T) {
	w, err := NewTableWriter(io.Discard, []string{"a", "b"})
	require.NoError(t, err)
	assert.Error(t, w.Write([]*string{nil}))
}

func TestReadTable_CallbackError(t *testing.T) {
	stop := errors.New("stop")
	_, err := ReadTable(strings.NewReader("a\n1\n2\n"), func([]*string) error { return stop })
	assert.ErrorIs(t, err, stop)
}
