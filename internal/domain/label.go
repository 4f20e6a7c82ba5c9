package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is an ordered health-impact category.
type Level string

const (
	Safe              Level = "safe"
	Moderate          Level = "moderate"
	SlightlyUnhealthy Level = "slightly_unhealthy"
	Unhealthy         Level = "unhealthy"
	VeryUnhealthy     Level = "very_unhealthy"
)

// Levels lists every level from least to most severe.
var Levels = []Level{Safe, Moderate, SlightlyUnhealthy, Unhealthy, VeryUnhealthy}

// Derived values computed per observation before labeling.
const (
	CORoll8h      Field = "co_roll8h"
	PM25DailyMean Field = "pm25_daily_mean"
	NO2DailyMean  Field = "no2_daily_mean"
)

// Regulatory guideline values used by the ratio-based labels.
const (
	GuidelineSO2      = 0.10
	GuidelineOx       = 0.06
	GuidelineSPM      = 0.20
	GuidelineCO8h     = 20.0
	GuidelinePM25Day  = 35.0
	labelColumnSuffix = "_label"
)

// NO2CutPoints are the fixed daily-mean bounds for the NO2 label.
var NO2CutPoints = [4]float64{0.04, 0.06, 0.12, 0.18}

// Env supplies the operands a label expression reads.
type Env interface {
	// Value returns a measurement or derived value of the current row.
	Value(f Field) *float64
	// Breakpoint returns the i-th quantile breakpoint of f at the row's station.
	Breakpoint(f Field, i int) *float64
}

// Num is a nullable numeric expression.
type Num interface {
	Eval(env Env) *float64
	fmt.Stringer
}

// Col reads a row value.
type Col Field

func (c Col) Eval(env Env) *float64 { return env.Value(Field(c)) }
func (c Col) String() string { return string(c) }

// Const is a literal.
type Const float64

func (c Const) Eval(Env) *float64 { return Float(float64(c)) }
func (c Const) String() string { return strconv.FormatFloat(float64(c), 'g', -1, 64) }

// Div divides two expressions; the result is null when either side is null.
type Div struct {
	Numerator, Denominator Num
}

func (d Div) Eval(env Env) *float64 {
	n, m := d.Numerator.Eval(env), d.Denominator.Eval(env)
	if n == nil || m == nil {
		return nil
	}
	return Float(*n / *m)
}

func (d Div) String() string { return "(" + d.Numerator.String() + " / " + d.Denominator.String() + ")" }

// Breakpoint reads the station quantile breakpoint of a field.
type Breakpoint struct {
	Field Field
	Index int
}

func (b Breakpoint) Eval(env Env) *float64 { return env.Breakpoint(b.Field, b.Index) }

func (b Breakpoint) String() string {
	return fmt.Sprintf("q%d(%s)", int(ProfileQuantiles[b.Index]*100+0.5), b.Field)
}

// Tiered assigns the first level whose bound the subject does not exceed:
// subject <= Bounds[0] is Safe, ... subject > Bounds[3] is VeryUnhealthy.
// A null subject or a null first bound yields a null level. A null later
// bound never matches, so evaluation continues with the next tier.
type Tiered struct {
	Subject Num
	Bounds  [4]Num
}

// Eval returns the level of the row, or nil.
func (t Tiered) Eval(env Env) *Level {
	x := t.Subject.Eval(env)
	if x == nil {
		return nil
	}
	if t.Bounds[0].Eval(env) == nil {
		return nil
	}
	for i, b := range t.Bounds {
		if v := b.Eval(env); v != nil && *x <= *v {
			l := Levels[i]
			return &l
		}
	}
	l := VeryUnhealthy
	return &l
}

func (t Tiered) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for i, b := range t.Bounds {
		fmt.Fprintf(&sb, " WHEN %s <= %s THEN '%s'", t.Subject, b, Levels[i])
	}
	fmt.Fprintf(&sb, " ELSE '%s' END", VeryUnhealthy)
	return sb.String()
}

// LabelRule binds a tiered expression to the field whose label it produces.
type LabelRule struct {
	Field Field
	Expr  Tiered
}

// Column is the output column name of the rule, e.g. "so2_label".
func (r LabelRule) Column() string { return string(r.Field) + labelColumnSuffix }

// Apply evaluates the rule as a string pointer ready for output.
func (r LabelRule) Apply(env Env) *string {
	l := r.Expr.Eval(env)
	if l == nil {
		return nil
	}
	return String(string(*l))
}

// RatioRule labels x / guideline against the tiers 1, 2, 3, 4.
func RatioRule(f Field, subject Field, guideline float64) LabelRule {
	return LabelRule{
		Field: f,
		Expr: Tiered{
			Subject: Div{Numerator: Col(subject), Denominator: Const(guideline)},
			Bounds:  [4]Num{Const(1), Const(2), Const(3), Const(4)},
		},
	}
}

// CutPointRule labels subject against fixed bounds.
func CutPointRule(f Field, subject Field, cuts [4]float64) LabelRule {
	return LabelRule{
		Field: f,
		Expr: Tiered{
			Subject: Col(subject),
			Bounds:  [4]Num{Const(cuts[0]), Const(cuts[1]), Const(cuts[2]), Const(cuts[3])},
		},
	}
}

// QuantileRule labels f against its own station breakpoints.
func QuantileRule(f Field) LabelRule {
	var bounds [4]Num
	for i := range bounds {
		bounds[i] = Breakpoint{Field: f, Index: i}
	}
	return LabelRule{Field: f, Expr: Tiered{Subject: Col(f), Bounds: bounds}}
}

// LabelRules returns the full rule set in output column order.
func LabelRules() []LabelRule {
	return []LabelRule{
		RatioRule(PM25, PM25DailyMean, GuidelinePM25Day),
		RatioRule(SO2, SO2, GuidelineSO2),
		QuantileRule(NO),
		CutPointRule(NO2, NO2DailyMean, NO2CutPoints),
		QuantileRule(NOx),
		RatioRule(CO, CORoll8h, GuidelineCO8h),
		RatioRule(Ox, Ox, GuidelineOx),
		QuantileRule(NMHC),
		QuantileRule(CH4),
		QuantileRule(THC),
		RatioRule(SPM, SPM, GuidelineSPM),
		QuantileRule(SP),
		QuantileRule(WS),
		QuantileRule(Temp),
		QuantileRule(Hum),
	}
}
