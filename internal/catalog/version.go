package catalog

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// versionKey is a parsed dotted numeric version such as 1.0 or 2.1.3.
type versionKey []int

func parseVersion(s string) (versionKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	parts := strings.Split(s, ".")
	key := make(versionKey, len(parts))
	for i, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return nil, fmt.Errorf("invalid version %q: component %d is not a non-negative integer", s, i+1)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", s, err)
		}
		key[i] = n
	}
	return key, nil
}

// compareVersionKeys compares component-wise; missing trailing components
// count as zero, so 1 == 1.0 == 1.0.0.
func compareVersionKeys(a, b versionKey) int {
	n := max(len(a), len(b))
	for i := range n {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmp.Compare(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// CompareVersions compares two dotted numeric version strings.
// It returns -1, 0 or +1, or an error if either string is not a version.
func CompareVersions(a, b string) (int, error) {
	ka, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	kb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}
	return compareVersionKeys(ka, kb), nil
}

// ValidVersion reports whether s parses as a dotted numeric version.
func ValidVersion(s string) bool {
	_, err := parseVersion(s)
	return err == nil
}
