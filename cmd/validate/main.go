// Command validate checks the integrity of a finished run: the flat export
// must be an exact projection of the wide feature artifact. It verifies the
// schema, row parity, cell-by-cell projection (including null preservation)
// and the value domains of the categorical columns.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -featured artifacts/featured.parquet \
//	  -table artifacts/feature_table.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/jp-air-features/internal/adapter/csvio"
	"github.com/couchcryptid/jp-air-features/internal/adapter/parquetio"
	"github.com/couchcryptid/jp-air-features/internal/domain"
	"github.com/couchcryptid/jp-air-features/internal/export"
)

// maxErrors caps the errors recorded per phase.
const maxErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxErrors {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	featured := flag.String("featured", "artifacts/featured.parquet", "path to the wide feature artifact")
	table := flag.String("table", "artifacts/feature_table.csv", "path to the flat export")
	flag.Parse()

	if *featured == "" || *table == "" {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(*featured, *table))
}

func run(featuredPath, tablePath string) int {
	fmt.Println("=== Feature Table Integrity Validation ===")
	fmt.Println()

	info, err := parquetio.Stat(featuredPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open feature artifact: %v\n", err)
		return 1
	}

	header, rows, err := loadTable(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load export table: %v\n", err)
		return 1
	}

	schema := validateSchema(info, header)
	parity := &phase{name: "Row parity"}
	projection := &phase{name: "Projection fidelity (values and nulls)"}
	domains := &phase{name: "Categorical value domains"}

	var n int64
	_, err = parquetio.ReadFeatures(featuredPath, func(batch []domain.FeatureRecord) error {
		for i := range batch {
			if n < int64(len(rows)) {
				compareRow(projection, n, export.Project(&batch[i]), rows[n])
				checkDomains(domains, n, rows[n])
			}
			n++
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read feature artifact: %v\n", err)
		return 1
	}
	if n != int64(len(rows)) {
		parity.errorf("feature artifact has %d rows, export has %d", n, len(rows))
	}
	if n != info.Rows {
		parity.errorf("footer reports %d rows, read %d", info.Rows, n)
	}

	phases := []*phase{schema, parity, projection, domains}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors)+p.dropped)
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d feature artifact, %d export\n", n, len(rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if p.dropped > 0 {
			fmt.Printf("  ... and %d more\n", p.dropped)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// loadTable reads the export into memory, one copied row per line.
func loadTable(path string) ([]string, [][]*string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var rows [][]*string
	header, err := csvio.ReadTable(f, func(row []*string) error {
		rows = append(rows, slices.Clone(row))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

func validateSchema(info parquetio.Info, header []string) *phase {
	p := &phase{name: "Schema"}
	want := export.Header()
	if !slices.Equal(header, want) {
		p.errorf("export header mismatch:\n    got  %s\n    want %s", strings.Join(header, ","), strings.Join(want, ","))
	}
	for _, c := range export.Columns {
		if !slices.Contains(info.Columns, c.Source) {
			p.errorf("feature artifact lacks column %q (export %q)", c.Source, c.Name)
		}
	}
	return p
}

func compareRow(p *phase, line int64, want, got []*string) {
	if len(got) != len(want) {
		p.errorf("row %d: %d cells, want %d", line, len(got), len(want))
		return
	}
	for i := range want {
		name := export.Columns[i].Name
		w := want[i]
		if w != nil && *w == "" {
			w = nil // empty text is indistinguishable from null in delimited output
		}
		switch {
		case w == nil && got[i] != nil:
			p.errorf("row %d %s: source is null, export has %q", line, name, *got[i])
		case w != nil && got[i] == nil:
			p.errorf("row %d %s: export is null, source has %q", line, name, *w)
		case w != nil && *w != *got[i]:
			p.errorf("row %d %s: export %q, source %q", line, name, *got[i], *w)
		}
	}
}

var (
	levelDomain = func() []string {
		out := make([]string, len(domain.Levels))
		for i, l := range domain.Levels {
			out[i] = string(l)
		}
		return out
	}()
	categoricalDomains = map[string][]string{
		"dayType":  {domain.DayTypeWeekend, domain.DayTypeWeekday},
		"workType": {domain.WorkTypeHoliday, domain.WorkTypeWorkday},
		"tHT":      {domain.PeakTypePeak, domain.PeakTypeNonPeak},
		"WD_dir":   domain.CompassPoints,
	}
)

func checkDomains(p *phase, line int64, row []*string) {
	for i, c := range export.Columns {
		if i >= len(row) || row[i] == nil {
			continue
		}
		allowed, ok := categoricalDomains[c.Name]
		if !ok && strings.HasSuffix(c.Name, "_label") {
			allowed, ok = levelDomain, true
		}
		if ok && !slices.Contains(allowed, *row[i]) {
			p.errorf("row %d %s: unexpected value %q", line, c.Name, *row[i])
		}
	}
}
