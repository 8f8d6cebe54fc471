package slug

import (
	"sort"
	"strconv"
	"strings"
)

// firstSequence is the number given to the second holder of a base slug.
const firstSequence = 2

// Sequenced joins candidate and n with sep: Sequenced("apple", "--", 3) is
// "apple--3".
func Sequenced(candidate, sep string, n uint64) string {
	return candidate + sep + strconv.FormatUint(n, 10)
}

// SequenceOf parses the sequence number of s relative to candidate.
// ok is false when s is not exactly candidate+sep+<digits>.
func SequenceOf(s, candidate, sep string) (n uint64, ok bool) {
	suffix, found := strings.CutPrefix(s, candidate+sep)
	if !found || suffix == "" || !allDigits(suffix) {
		return 0, false
	}
	n, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsVariant reports whether s is candidate itself or one of its sequenced
// variants. A subject already holding a variant of its candidate keeps it.
func IsVariant(s, candidate, sep string) bool {
	if s == candidate {
		return true
	}
	_, ok := SequenceOf(s, candidate, sep)
	return ok
}

// Matches reports whether s belongs in the conflict set of candidate: equal
// to it, or candidate+sep followed by one or more digits. Overflowing digit
// runs still match; they are handled by Next.
func Matches(s, candidate, sep string) bool {
	if s == candidate {
		return true
	}
	suffix, found := strings.CutPrefix(s, candidate+sep)
	return found && suffix != "" && allDigits(suffix)
}

// SortConflicts orders conflicts longest first, then lexically descending.
// For slugs sharing a base this puts the highest sequence number first,
// because a larger number never has fewer digits.
func SortConflicts(conflicts []string) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if len(conflicts[i]) != len(conflicts[j]) {
			return len(conflicts[i]) > len(conflicts[j])
		}
		return conflicts[i] > conflicts[j]
	})
}

// Next returns the slug to use for candidate given the slugs that already
// conflict with it. Entries that do not match the candidate are ignored.
//
//   - no conflicts: candidate
//   - top conflict is candidate itself, or its suffix does not parse: candidate+sep+2
//   - top conflict is candidate+sep+N: candidate+sep+(N+1)
func Next(candidate, sep string, conflicts []string) string {
	matching := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		if Matches(c, candidate, sep) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return candidate
	}
	SortConflicts(matching)

	n, ok := SequenceOf(matching[0], candidate, sep)
	if !ok || n+1 < firstSequence {
		return Sequenced(candidate, sep, firstSequence)
	}
	return Sequenced(candidate, sep, n+1)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
