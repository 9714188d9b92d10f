package utils

import (
	"sort"
	"strings"
)

// StatusRank returns a priority rank: lower is higher priority, so
// failures surface at the top of summary tables.
func StatusRank(s string) int {
	switch strings.ToLower(s) {
	case "failed":
		return 0
	case "timed out", "update failed":
		return 1
	case "trust failed":
		return 2
	case "unchanged":
		return 3
	case "ok", "verified", "updated":
		return 4
	default:
		return 99
	}
}

// LessByStatusThenName applies (status rank) then (alpha by name, case-insensitive).
func LessByStatusThenName(statusA, statusB, nameA, nameB string) bool {
	rA, rB := StatusRank(statusA), StatusRank(statusB)
	if rA != rB {
		return rA < rB
	}
	return strings.ToLower(nameA) < strings.ToLower(nameB)
}

// SortByStatusAndName sorts any slice using extractor funcs.
func SortByStatusAndName[T any](xs []T, statusOf func(T) string, nameOf func(T) string) {
	sort.SliceStable(xs, func(i, j int) bool {
		return LessByStatusThenName(statusOf(xs[i]), statusOf(xs[j]), nameOf(xs[i]), nameOf(xs[j]))
	})
}
