package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Format writes p in Equalizer APO syntax. Parse(Format(p)) yields an
// equivalent profile.
func Format(p *Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Preamp: %s dB\n", formatFloat(p.PreampDB))
	for i, f := range p.Filters {
		state := "ON"
		if !f.Enabled {
			state = "OFF"
		}
		fmt.Fprintf(&b, "Filter %d: %s %s Fc %s Hz Gain %s dB Q %s\n",
			i+1, state, f.Kind.Code(),
			formatFloat(f.FreqHz), formatFloat(f.GainDB), formatFloat(f.Q))
	}

	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
