package filter

import "strings"

// Kind selects one of the eight supported biquad responses.
type Kind int

const (
	Peak Kind = iota
	LowShelf
	HighShelf
	LowPass
	HighPass
	BandPass
	Notch
	AllPass
)

var kindNames = [...]string{
	Peak:      "Peak",
	LowShelf:  "LowShelf",
	HighShelf: "HighShelf",
	LowPass:   "LowPass",
	HighPass:  "HighPass",
	BandPass:  "BandPass",
	Notch:     "Notch",
	AllPass:   "AllPass",
}

// Equalizer APO short codes, used when writing profiles.
var kindCodes = [...]string{
	Peak:      "PK",
	LowShelf:  "LSC",
	HighShelf: "HSC",
	LowPass:   "LP",
	HighPass:  "HP",
	BandPass:  "BP",
	Notch:     "NO",
	AllPass:   "AP",
}

var kindAliases = map[string]Kind{
	"PK":        Peak,
	"PEAK":      Peak,
	"LSC":       LowShelf,
	"LS":        LowShelf,
	"LOWSHELF":  LowShelf,
	"HSC":       HighShelf,
	"HS":        HighShelf,
	"HIGHSHELF": HighShelf,
	"LP":        LowPass,
	"LPQ":       LowPass,
	"LOWPASS":   LowPass,
	"HP":        HighPass,
	"HPQ":       HighPass,
	"HIGHPASS":  HighPass,
	"BP":        BandPass,
	"BANDPASS":  BandPass,
	"NO":        Notch,
	"NOTCH":     Notch,
	"AP":        AllPass,
	"ALLPASS":   AllPass,
}

// ParseKind resolves an Equalizer APO type token, ignoring case.
func ParseKind(token string) (Kind, bool) {
	k, ok := kindAliases[strings.ToUpper(token)]
	return k, ok
}

func (k Kind) String() string {
	if !k.valid() {
		return "Unknown"
	}
	return kindNames[k]
}

// Code returns the short APO token for k.
func (k Kind) Code() string {
	if !k.valid() {
		return "??"
	}
	return kindCodes[k]
}

// HasGain reports whether the gain parameter affects the response.
func (k Kind) HasGain() bool {
	return k == Peak || k == LowShelf || k == HighShelf
}

func (k Kind) valid() bool {
	return k >= Peak && k <= AllPass
}
