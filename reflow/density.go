package reflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDensity is returned by ParseDensity for names outside the closed
// set.
var ErrUnknownDensity = errors.New("reflow: unknown density")

// Density is the fraction of the usable viewport height given to one card.
type Density uint8

const (
	Compact Density = iota
	Cozy
	Comfortable
	Full
)

var densityFactors = [...]float64{
	Compact:     0.35,
	Cozy:        0.55,
	Comfortable: 0.75,
	Full:        1.0,
}

var densityNames = [...]string{
	Compact:     "compact",
	Cozy:        "cozy",
	Comfortable: "comfortable",
	Full:        "full",
}

// Densities returns every density in ascending order.
func Densities() []Density {
	return []Density{Compact, Cozy, Comfortable, Full}
}

// Factor returns the height multiplier. Unknown values behave as Full.
func (d Density) Factor() float64 {
	if int(d) < len(densityFactors) {
		return densityFactors[d]
	}
	return 1.0
}

func (d Density) String() string {
	if int(d) < len(densityNames) {
		return densityNames[d]
	}
	return fmt.Sprintf("Density(%d)", uint8(d))
}

// ParseDensity accepts a density name, case-insensitively.
func ParseDensity(s string) (Density, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range densityNames {
		if n == name {
			return Density(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDensity, s)
}

// Budget returns the height budget for a viewport: the height left after
// chrome, scaled by the density factor and never below MinBudget.
func Budget(viewportHeight, chrome float64, d Density) float64 {
	return max((viewportHeight-chrome)*d.Factor(), MinBudget)
}
