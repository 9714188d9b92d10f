package utils

import (
	"fmt"
	"regexp"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func StripANSI(input string) string {
	return ansiPattern.ReplaceAllString(input, "")
}

// GetMaxWidth returns the widest printable width among lines, with
// color codes stripped first.
func GetMaxWidth(lines []string) int {
	max := 0
	for _, line := range lines {
		if w := len(StripANSI(line)); w > max {
			max = w
		}
	}
	return max
}

// HumanSize renders a byte count the way download tools do: one
// decimal, decimal units.
func HumanSize(n int64) string {
	const unit = 1000
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "kMGTPE"[exp])
}
