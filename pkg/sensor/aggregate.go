package sensor

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/citychat/pkg/domain"
)

// ignoredFields are identity and geo fields never aggregated.
var ignoredFields = map[string]bool{
	"node_id":   true,
	"name":      true,
	"latitude":  true,
	"longitude": true,
	"xcor":      true,
	"ycor":      true,
	"type":      true,
}

// Ignored reports whether key is an identity or geo field.
func Ignored(key string) bool {
	return ignoredFields[key]
}

var leadingNumber = regexp.MustCompile(`^\s*([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)(.*)$`)

// ParseValue extracts the leading number of a raw value and the unit text after it.
// ok is false for categorical values.
func ParseValue(v any) (num float64, unit string, ok bool) {
	switch t := v.(type) {
	case float64:
		return t, "", true
	case int:
		return float64(t), "", true
	case string:
		m := leadingNumber.FindStringSubmatch(t)
		if m == nil {
			return 0, "", false
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, "", false
		}
		return f, strings.TrimSpace(m[2]), true
	}
	return 0, "", false
}

// Result is the aggregated value of each field, in first-seen field order.
type Result struct {
	Fields []Field
}

// Len returns the number of aggregated fields.
func (r Result) Len() int { return len(r.Fields) }

// Get returns the aggregated value of key.
func (r Result) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			s, _ := f.Value.(string)
			return s, true
		}
	}
	return "", false
}

// String renders one "field: value" line per field.
func (r Result) String() string {
	var b strings.Builder
	for _, f := range r.Fields {
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(FormatValue(f.Value))
		b.WriteByte('\n')
	}
	return b.String()
}

type column struct {
	key      string
	numbers  []float64
	unit     string
	unitSeen bool
	raw      []string
}

// Aggregate reduces records field by field with method.
//
// Fields without any numeric value fall back to their categorical mode. Numeric
// results carry the unit of the first numeric value, e.g. "26 C". An empty input
// yields an empty result and fields with no candidate values are omitted.
func Aggregate(records []Reading, method domain.Accumulator) Result {
	var cols []*column
	byKey := make(map[string]*column)

	for _, rec := range records {
		for _, f := range rec.Fields {
			if Ignored(f.Key) || f.Value == nil {
				continue
			}
			c, ok := byKey[f.Key]
			if !ok {
				c = &column{key: f.Key}
				byKey[f.Key] = c
				cols = append(cols, c)
			}
			if n, unit, ok := ParseValue(f.Value); ok {
				c.numbers = append(c.numbers, n)
				if !c.unitSeen {
					c.unit, c.unitSeen = unit, true
				}
			}
			c.raw = append(c.raw, FormatValue(f.Value))
		}
	}

	var res Result
	for _, c := range cols {
		v, ok := c.reduce(method)
		if !ok {
			continue
		}
		res.Fields = append(res.Fields, Field{Key: c.key, Value: v})
	}
	return res
}

func (c *column) reduce(method domain.Accumulator) (string, bool) {
	if len(c.numbers) == 0 {
		return Mode(c.raw)
	}

	var n float64
	switch method {
	case domain.AccumulatorMax:
		n = slices.Max(c.numbers)
	case domain.AccumulatorMin:
		n = slices.Min(c.numbers)
	case domain.AccumulatorMode:
		n = modeFloat(c.numbers)
	default:
		n = mean(c.numbers)
	}
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if c.unit != "" {
		s += " " + c.unit
	}
	return s, true
}

// Mode returns the most frequent value, first seen wins ties.
func Mode(values []string) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, true
}

func modeFloat(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	best, bestCount := values[0], 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// mean is rounded to two decimals and clamped to the observed range.
func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := math.Round(sum/float64(len(values))*100) / 100
	return math.Min(math.Max(avg, slices.Min(values)), slices.Max(values))
}
