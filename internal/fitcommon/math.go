package fitcommon

import (
	"fmt"
	"strconv"
	"strings"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

func Clamp(v, lo, hi float64) float64 {
	return dspcore.Clamp(v, lo, hi)
}

// ParseWorkers parses a worker count flag. "auto" yields 0.
func ParseWorkers(raw string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" {
		return 0, fmt.Errorf("empty value (use integer >= 1 or 'auto')")
	}
	if v == "auto" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q (use integer >= 1 or 'auto')", raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%d (must be >= 1 or 'auto')", n)
	}
	return n, nil
}

// GainToDB and DBToGain convert between linear gain and decibels.
func GainToDB(g float64) float64 {
	return dspcore.LinearToDB(g)
}

func DBToGain(db float64) float64 {
	return dspcore.DBToLinear(db)
}
