// Package natsort implements natural string ordering: embedded unsigned
// integers compare by numeric value instead of digit-by-digit, so
// "Level2" sorts before "Level10". refscan uses it for display lists
// (type tags, save slots, suggestions); core result ordering stays plain
// lexicographic so re-scans are byte-for-byte reproducible.
package natsort

import (
	"sort"
	"strings"
)

// Compare returns -1, 0, or +1 ordering a against b naturally.
// Non-digit segments compare byte-wise and case-sensitively.
func Compare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			ia, jb := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			da := strings.TrimLeft(a[ia:i], "0")
			db := strings.TrimLeft(b[jb:j], "0")

			// More significant digits means a larger number.
			if len(da) != len(db) {
				if len(da) < len(db) {
					return -1
				}
				return 1
			}
			if c := strings.Compare(da, db); c != 0 {
				return c
			}
			// Numeric tie: fewer leading zeros sorts first so the
			// ordering stays total ("7" before "007").
			za, zb := (i-ia)-len(da), (j-jb)-len(db)
			if za != zb {
				if za < zb {
					return -1
				}
				return 1
			}
			continue
		}

		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}

	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return 0
}

// Less reports whether a orders before b naturally.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings sorts the slice in place in natural order.
func Strings(ss []string) {
	sort.Slice(ss, func(i, j int) bool { return Compare(ss[i], ss[j]) < 0 })
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
