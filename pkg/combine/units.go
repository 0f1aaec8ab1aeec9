// File: pkg/combine/units.go
package combine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sizePattern = regexp.MustCompile(`(?i)^(\d+)([KMGT])?B?$`)

var sizeUnits = []string{"K", "M", "G", "T"}

// ParseSize parses a byte count with an optional K, M, G or T suffix
// (powers of 1024, case-insensitive) and an optional trailing B.
func ParseSize(s string) (int64, error) {
	m := sizePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	shift := 0
	if m[2] != "" {
		for i, u := range sizeUnits {
			if strings.EqualFold(m[2], u) {
				shift = 10 * (i + 1)
			}
		}
	}
	if shift > 0 && n > (1<<(63-shift))-1 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidSize, s)
	}
	return n << shift, nil
}

// HumanSize formats n as "512B", "2.0K", "1.5M" and so on.
func HumanSize(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%dB", n)
	}
	v := float64(n)
	unit := ""
	for _, u := range sizeUnits {
		v /= 1024
		unit = u
		if v < 1024 {
			break
		}
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}
