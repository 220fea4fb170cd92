// Package profile reads and writes Equalizer APO style EQ profiles.
package profile

import (
	"fmt"
	"os"
	"slices"

	"github.com/agusx1211/eqlayer/internal/filter"
)

// Profile is a preamp gain and an ordered list of bands. The order is the
// cascade order.
type Profile struct {
	PreampDB float64
	Filters  []filter.Spec
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return &Profile{}
	}
	return &Profile{
		PreampDB: p.PreampDB,
		Filters:  slices.Clone(p.Filters),
	}
}

// EnabledCount returns how many bands are switched on.
func (p *Profile) EnabledCount() int {
	n := 0
	for _, f := range p.Filters {
		if f.Enabled {
			n++
		}
	}
	return n
}

// Load reads and parses the profile at path.
func Load(path string) (*Profile, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}
	p, warnings := Parse(string(data))
	return p, warnings, nil
}
