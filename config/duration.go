package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrEmptyTimeValue reports a relative-time string with no content.
	ErrEmptyTimeValue = errors.New("config: empty time value")

	// ErrMissingUnit reports an amount with no unit following it.
	ErrMissingUnit = errors.New("config: missing unit on time value")
)

// UnknownUnitError reports a time unit outside the daemons' vocabulary.
type UnknownUnitError struct {
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("config: unknown time unit %q", e.Unit)
}

// relativeUnits maps the daemons' relative-time unit spellings to
// microseconds.
var relativeUnits = map[string]uint64{
	"us":      1,
	"ms":      1000,
	"s":       1000 * 1000,
	"\"":      1000 * 1000,
	"min":     60 * 1000 * 1000,
	"minutes": 60 * 1000 * 1000,
	"'":       60 * 1000 * 1000,
	"h":       60 * 60 * 1000 * 1000,
	"d":       24 * 60 * 60 * 1000 * 1000,
	"week":    7 * 24 * 60 * 60 * 1000 * 1000,
	"year":    31536000000000,
}

// ParseRelativeTime parses the daemons' relative-time syntax: whitespace
// separated amount/unit pairs, summed. "3 min 10 s" is 190 seconds.
func ParseRelativeTime(s string) (time.Duration, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, ErrEmptyTimeValue
	}
	var micros uint64
	for i := 0; i < len(fields); i += 2 {
		amount, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("config: bad time amount %q: %w", fields[i], err)
		}
		if i+1 >= len(fields) {
			return 0, ErrMissingUnit
		}
		mult, ok := relativeUnits[fields[i+1]]
		if !ok {
			return 0, &UnknownUnitError{Unit: fields[i+1]}
		}
		micros += amount * mult
	}
	return time.Duration(micros) * time.Microsecond, nil
}
