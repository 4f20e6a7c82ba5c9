package features

import (
	"time"

	"github.com/couchcryptid/jp-air-features/internal/domain"
)

// rollingMean sets dst on every row to the mean of the non-null src values
// whose timestamp lies in [t-window, t], where t is the row's own timestamp.
// Rows sharing a timestamp see each other. sorted must hold the station's row
// indices in ascending timestamp order. Missing hours are not synthesized.
func rollingMean(out []domain.FeatureRecord, sorted []int, src, dst domain.Field, window time.Duration) {
	left := 0
	for start := 0; start < len(sorted); {
		t := out[sorted[start]].ObsDate
		end := start + 1
		for end < len(sorted) && out[sorted[end]].ObsDate.Equal(t) {
			end++
		}

		lower := t.Add(-window)
		for out[sorted[left]].ObsDate.Before(lower) {
			left++
		}

		mean := meanOf(out, sorted[left:end], src)
		for _, i := range sorted[start:end] {
			out[i].Set(dst, clone(mean))
		}
		start = end
	}
}

// dailyMean sets dst on every row to the mean of the non-null src values of
// all rows sharing its calendar date.
func dailyMean(out []domain.FeatureRecord, rows []int, src, dst domain.Field) {
	byDate := make(map[int32][]int)
	for _, i := range rows {
		d := out[i].Date
		byDate[d] = append(byDate[d], i)
	}
	for _, day := range byDate {
		mean := meanOf(out, day, src)
		for _, i := range day {
			out[i].Set(dst, clone(mean))
		}
	}
}

// Profile computes the quantile breakpoints of every quantile-labeled field
// over the given rows. Fields with no values are left out.
func Profile(out []domain.FeatureRecord, rows []int) domain.QuantileProfile {
	profile := make(domain.QuantileProfile, len(domain.QuantileFields))
	values := make([]float64, 0, len(rows))
	for _, f := range domain.QuantileFields {
		values = values[:0]
		for _, i := range rows {
			if v := out[i].Value(f); v != nil {
				values = append(values, *v)
			}
		}
		if b, ok := domain.NewBreakpoints(values); ok {
			profile[f] = b
		}
	}
	return profile
}

func meanOf(out []domain.FeatureRecord, rows []int, f domain.Field) *float64 {
	var sum float64
	n := 0
	for _, i := range rows {
		if v := out[i].Value(f); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return domain.Float(sum / float64(n))
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return domain.Float(*v)
}
