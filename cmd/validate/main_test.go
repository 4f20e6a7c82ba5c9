package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/jp-air-features/internal/adapter/csvio"
	"github.com/couchcryptid/jp-air-features/internal/adapter/parquetio"
	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/export"
)

func sampleRecords() []domain.FeatureRecord {
	var out []domain.FeatureRecord
	for h := range 3 {
		r := domain.NewFeatureRecord(domain.Observation{
			StationID: "S1",
			ObsDate:   time.Date(2024, 1, 1, h, 0, 0, 0, time.UTC),
			SO2:       domain.Float(0.05),
			WD:        domain.Float(10),
		})
		r.ApplyCalendar(domain.DeriveCalendar(r.ObsDate, domain.HolidaySet{}))
		r.WDDir = domain.WindDirection8(r.WD)
		r.SO2Label = domain.String(string(domain.Safe))
		out = append(out, r)
	}
	return out
}

func writeArtifacts(t *testing.T, records []domain.FeatureRecord, mutate func(rows [][]*string) [][]*string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	featured := filepath.Join(dir, "featured.parquet")
	table := filepath.Join(dir, "feature_table.csv")

	_, err := parquetio.WriteFeatures(featured, dir, records)
	require.NoError(t, err)

	rows := make([][]*string, len(records))
	for i := range records {
		rows[i] = export.Project(&records[i])
	}
	if mutate != nil {
		rows = mutate(rows)
	}

	var buf bytes.Buffer
	tw, err := csvio.NewTableWriter(&buf, export.Header())
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, tw.Write(r))
	}
	require.NoError(t, tw.Flush())
	require.NoError(t, os.WriteFile(table, buf.Bytes(), 0o644))
	return featured, table
}

func TestRun_Passes(t *testing.T) {
	featured, table := writeArtifacts(t, sampleRecords(), nil)
	assert.Equal(t, 0, run(featured, table))
}

func TestRun_DetectsRowMismatch(t *testing.T) {
	featured, table := writeArtifacts(t, sampleRecords(), func(rows [][]*string) [][]*string {
		return rows[:2]
	})
	assert.Equal(t, 1, run(featured, table))
}

func TestRun_DetectsInjectedNull(t *testing.T) {
	featured, table := writeArtifacts(t, sampleRecords(), func(rows [][]*string) [][]*string {
		rows[1][0] = nil
		return rows
	})
	assert.Equal(t, 1, run(featured, table))
}

func TestCheckDomains(t *testing.T) {
	row := export.Project(&sampleRecords()[0])
	p := &phase{name: "domains"}
	checkDomains(p, 0, row)
	assert.True(t, p.passed(), p.errors)

	for i, c := range export.Columns {
		if c.Name == "SO2_label" {
			row[i] = domain.String("hazardous")
		}
	}
	checkDomains(p, 0, row)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "SO2_label")
}

func TestPhase_CapsErrors(t *testing.T) {
	p := &phase{}
	for range maxErrors + 5 {
		p.errorf("x")
	}
	assert.Len(t, p.errors, maxErrors)
	assert.Equal(t, 5, p.dropped)
}
