package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// IsVersion returns true for dotted numeric versions ("2.7", "2.7.2").
func IsVersion(v string) bool {
	return versionPattern.MatchString(strings.TrimSpace(v))
}

// CompareVersions compares two dotted numeric versions and returns
// -1, 0 or 1. Missing components count as zero, so "2.7" equals "2.7.0".
func CompareVersions(a, b string) (int, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if !IsVersion(a) || !IsVersion(b) {
		return 0, errors.New("invalid version format (expected dotted digits)")
	}

	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}

	for i := 0; i < n; i++ {
		aNum, bNum := 0, 0
		if i < len(aParts) {
			aNum, _ = strconv.Atoi(aParts[i])
		}
		if i < len(bParts) {
			bNum, _ = strconv.Atoi(bParts[i])
		}

		switch {
		case aNum > bNum:
			return 1, nil
		case aNum < bNum:
			return -1, nil
		}
	}

	return 0, nil
}
