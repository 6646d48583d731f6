// Package ordering generates lexicographic sort keys for manual list
// positioning. Keys are strings over 'a'..'z'; inserting between two
// neighbors never requires renumbering other rows.
package ordering

import "strings"

const (
	minChar = byte('a')
	maxChar = byte('z')
)

// Midpoint returns a key that sorts strictly between prev and next.
// An empty prev means the head of the list, an empty next the tail.
// For well-formed prev < next inputs the result satisfies
// prev < Midpoint(prev, next) < next. The function never fails: equal
// inputs get a minimum character appended so progress is always made,
// though the result is only best-effort when duplicates already exist.
// Repeated insertion at the same boundary grows key length without
// bound; callers accept that in exchange for never rebalancing.
func Midpoint(prev, next string) string {
	p := prev
	if p == "" {
		p = string(minChar)
	}
	n := next
	if n == "" {
		n = string(maxChar)
	}

	if p == n {
		return p + string(minChar)
	}

	var b strings.Builder
	i := 0
	for {
		pc := minChar
		if i < len(p) {
			pc = p[i]
		}
		nc := maxChar
		if i < len(n) {
			nc = n[i]
		}

		if pc == nc {
			b.WriteByte(pc)
			i++
			continue
		}

		if int(nc)-int(pc) > 1 {
			b.WriteByte(byte((int(pc) + int(nc)) / 2))
			break
		}

		// Adjacent codes leave no room at this position: keep prev's
		// character and extend until a gap opens up. Once both inputs
		// are exhausted the sentinels differ by 25, so this terminates.
		b.WriteByte(pc)
		i++
	}

	return b.String()
}
