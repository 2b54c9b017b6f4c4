package sensor

import "strings"

var temporalKeywords = []string{
	"past", "last", "history", "historical", "trend", "over time",
	"yesterday", "week", "month", "year", "hour", "day",
}

var sensorKeywords = []string{
	"temperature", "humidity", "co2", "carbon dioxide", "co", "carbon monoxide",
	"pm2.5", "particulate matter", "pm10", "gas", "tvoc", "voc", "air quality",
	"ph", "turbidity", "tds", "conductivity", "water flow", "water level",
	"voltage", "current", "power", "energy", "pressure", "noise",
}

// KnownLocations are places with separate indoor and outdoor sensors.
var KnownLocations = []string{"Kohli Block", "Vindhya"}

// ParameterKeywords maps a parameter type to the words that refer to it.
// Order matters: the first parameter type whose keyword appears in a query wins.
var ParameterKeywords = []struct {
	Type     string
	Keywords []string
}{
	{"temperature", []string{"temperature", "temp", "ambient temperature", "celsius", "fahrenheit"}},
	{"humidity", []string{"humidity", "relative humidity", "moisture"}},
	{"co2", []string{"co2", "carbon dioxide"}},
	{"co", []string{"co", "carbon monoxide"}},
	{"pm2.5", []string{"pm2.5", "particulate matter", "fine particles"}},
	{"pm10", []string{"pm10", "coarse particles"}},
	{"gas", []string{"gas", "tvoc", "voc"}},
	{"air quality", []string{"aqi", "air quality", "air quality index"}},
	{"ph", []string{"ph", "acidity"}},
	{"turbidity", []string{"turbidity", "clarity", "water clarity"}},
	{"tds", []string{"tds", "total dissolved solids"}},
	{"conductivity", []string{"conductivity", "water conductivity"}},
	{"water flow", []string{"flow", "water flow", "flow rate"}},
	{"water level", []string{"water level", "level"}},
	{"voltage", []string{"voltage", "volts"}},
	{"current", []string{"current", "ampere", "amp"}},
	{"power", []string{"power", "watt", "kw", "kilowatt"}},
	{"energy", []string{"energy", "kwh", "kilowatt hour"}},
	{"pressure", []string{"pressure", "barometric pressure", "atmospheric pressure"}},
	{"noise", []string{"noise", "sound", "decibel", "db"}},
}

// IsTemporalQuery reports whether a question refers to a time span.
func IsTemporalQuery(q string) bool {
	return containsAny(strings.ToLower(q), temporalKeywords)
}

// IsSensorQuery reports whether a question names a sensor parameter.
func IsSensorQuery(q string) bool {
	return containsAny(strings.ToLower(q), sensorKeywords)
}

// ShouldVisualize reports whether an answer to q can be charted.
func ShouldVisualize(q string) bool {
	return IsTemporalQuery(q) && IsSensorQuery(q)
}

// IsClimateQuery reports whether a question is about temperature or humidity.
func IsClimateQuery(q string) bool {
	return containsAny(strings.ToLower(q), []string{"temperature", "humidity"})
}

// ExtractLocation returns the known location named in q, or "".
func ExtractLocation(q string) string {
	q = strings.ToLower(q)
	for _, l := range KnownLocations {
		if strings.Contains(q, strings.ToLower(l)) {
			return l
		}
	}
	return ""
}

// ParameterFromQuery returns the parameter type mentioned in q, or "".
func ParameterFromQuery(q string) string {
	q = strings.ToLower(q)
	for _, p := range ParameterKeywords {
		if containsAny(q, p.Keywords) {
			return p.Type
		}
	}
	return ""
}

// MatchParameter picks the available parameter best matching paramType:
// an exact name, then one containing a keyword of the type, then one containing
// the type itself. It returns "" when nothing matches.
func MatchParameter(paramType string, available []string) string {
	paramType = strings.ToLower(paramType)
	for _, p := range available {
		if strings.ToLower(p) == paramType {
			return p
		}
	}
	for _, pk := range ParameterKeywords {
		if pk.Type != paramType {
			continue
		}
		for _, kw := range pk.Keywords {
			for _, p := range available {
				if strings.Contains(strings.ToLower(p), kw) {
					return p
				}
			}
		}
	}
	for _, p := range available {
		if strings.Contains(strings.ToLower(p), paramType) {
			return p
		}
	}
	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
