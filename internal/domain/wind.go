package domain

import "math"

// CompassPoints lists the eight wind direction categories clockwise from north.
var CompassPoints = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// compassSectors holds the upper (exclusive) bound of each 45° sector after N.
var compassSectors = []struct {
	upper float64
	point string
}{
	{67.5, "NE"},
	{112.5, "E"},
	{157.5, "SE"},
	{202.5, "S"},
	{247.5, "SW"},
	{292.5, "W"},
	{337.5, "NW"},
}

// WindDirection8 buckets a wind direction in degrees into one of eight compass
// points. N covers [337.5, 360) and [0, 22.5). Nil, NaN and negative inputs
// yield nil.
func WindDirection8(deg *float64) *string {
	if deg == nil || math.IsNaN(*deg) || *deg < 0 {
		return nil
	}
	d := *deg
	if d >= 337.5 || d < 22.5 {
		return String("N")
	}
	for _, s := range compassSectors {
		if d < s.upper {
			return String(s.point)
		}
	}
	return String("NW")
}
