package config

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrRangeSpec means a range string like "1:3" has min > max
var ErrRangeSpec = errors.New("invalid range specified")

var (
	intRangeRe   = regexp.MustCompile(`\s*(\-?\d*):(\-?\d*)`)
	floatRangeRe = regexp.MustCompile(`\s*([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?):([-+]?[0-9]*\.?[0-9]*([eE][-+]?[0-9]+)?)`)
)

// ParseIntRange parses a string like "-12:6" into 2 values, -12 and 6.
// Parameters min and max are the "default" min/max values,
// when a value is not specified (e.g. "-12:"), the default is assigned.
// Values outside [min, max] are clipped.
func ParseIntRange(r string, min int, max int) (int, int, error) {
	m := intRangeRe.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.Atoi(m[1])
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 3 && m[2] != "" {
		maxOut, _ = strconv.Atoi(m[2])
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// ParseFloat64Range parses a string like "-12.01e1:+6" into 2 values,
// -120.1 and 6.0. Defaults and clipping work as in ParseIntRange.
func ParseFloat64Range(r string, min float64, max float64) (
	float64, float64, error) {
	m := floatRangeRe.FindStringSubmatch(r)
	minOut := min
	maxOut := max
	if len(m) >= 2 && m[1] != "" {
		minOut, _ = strconv.ParseFloat(m[1], 64)
		if minOut < min {
			minOut = min
		}
	}
	if len(m) >= 4 && m[3] != "" {
		maxOut, _ = strconv.ParseFloat(m[3], 64)
		if maxOut > max {
			maxOut = max
		}
	}
	var err error
	if minOut > maxOut {
		err = ErrRangeSpec
		minOut = maxOut
	}
	return minOut, maxOut, err
}

// SetChargeRange sets MinCharge/MaxCharge from a range string like "1:3"
// or a single charge like "2"
func (c *Config) SetChargeRange(r string) error {
	if z, err := strconv.Atoi(r); err == nil {
		c.MinCharge, c.MaxCharge = z, z
		return nil
	}
	minZ, maxZ, err := ParseIntRange(r, 1, 100)
	if err != nil {
		return err
	}
	c.MinCharge, c.MaxCharge = minZ, maxZ
	return nil
}
