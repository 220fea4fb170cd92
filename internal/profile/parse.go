package profile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/agusx1211/eqlayer/internal/filter"
)

// Warning describes a profile line that was recognized but could not be used.
// Parsing continues past it.
type Warning struct {
	Line   int
	Text   string
	Reason string
}

func (w Warning) Error() string {
	return fmt.Sprintf("line %d: %s: %q", w.Line, w.Reason, w.Text)
}

// Parse reads a profile in Equalizer APO syntax. It never fails: lines that
// cannot be used are skipped, and Preamp/Filter lines that are malformed are
// reported as warnings. Filters keep the order they appear in.
func Parse(text string) (*Profile, []Warning) {
	p := &Profile{}
	var warnings []Warning

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		keyword, rest := splitKeyword(line)
		switch strings.ToUpper(keyword) {
		case "PREAMP":
			db, reason := parsePreamp(rest)
			if reason != "" {
				warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: reason})
				continue
			}
			p.PreampDB = db
		case "FILTER":
			spec, reason := parseFilter(rest)
			if reason != "" {
				warnings = append(warnings, Warning{Line: i + 1, Text: line, Reason: reason})
				continue
			}
			p.Filters = append(p.Filters, spec)
		}
	}

	return p, warnings
}

// splitKeyword splits the leading run of letters from the rest of the line.
func splitKeyword(line string) (string, string) {
	idx := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsLetter(r) })
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx:]
}

func parsePreamp(rest string) (float64, string) {
	rest = strings.TrimPrefix(strings.TrimSpace(rest), ":")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, "missing preamp value"
	}
	db, err := parseValue(fields[0], "dB")
	if err != nil {
		return 0, "invalid preamp value"
	}
	return db, ""
}

func parseFilter(rest string) (filter.Spec, string) {
	spec := filter.Spec{Q: filter.DefaultQ}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return spec, "missing ':' after Filter"
	}
	tokens := strings.Fields(rest[colon+1:])
	if len(tokens) < 2 {
		return spec, "missing filter state or type"
	}

	switch strings.ToUpper(tokens[0]) {
	case "ON":
		spec.Enabled = true
	case "OFF":
		spec.Enabled = false
	default:
		return spec, "expected ON or OFF"
	}

	kind, ok := filter.ParseKind(tokens[1])
	if !ok {
		return spec, "unknown filter type " + tokens[1]
	}
	spec.Kind = kind

	var haveFc, haveQ bool
	bandwidth := 0.0

	for i := 2; i < len(tokens); i++ {
		name := tokens[i]
		key := strings.ToUpper(name)
		var unit string
		switch key {
		case "FC":
			unit = "Hz"
		case "GAIN":
			unit = "dB"
		case "Q":
		case "BW":
			unit = "Oct"
		default:
			// units such as Hz, dB and Oct
			continue
		}

		// APO writes the bandwidth unit first: "BW Oct 1"
		if key == "BW" && i+2 < len(tokens) && strings.EqualFold(tokens[i+1], unit) {
			i++
		}
		if i+1 >= len(tokens) {
			return spec, "missing value for " + name
		}
		v, err := parseValue(tokens[i+1], unit)
		if err != nil {
			return spec, "invalid value for " + name
		}
		i++

		switch key {
		case "FC":
			spec.FreqHz = v
			haveFc = true
		case "GAIN":
			spec.GainDB = v
		case "Q":
			spec.Q = v
			haveQ = true
		case "BW":
			bandwidth = v
		}
	}

	if !haveFc {
		return spec, "missing Fc"
	}
	if !haveQ && bandwidth > 0 {
		spec.Q = filter.BandwidthToQ(bandwidth)
	}
	return spec, ""
}

var errNotFinite = errors.New("value is not finite")

// parseValue parses a finite number that may carry a unit suffix, as in "100Hz".
func parseValue(token, unit string) (float64, error) {
	if unit != "" && len(token) > len(unit) && strings.EqualFold(token[len(token)-len(unit):], unit) {
		token = token[:len(token)-len(unit)]
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}
