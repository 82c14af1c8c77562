// Package uniquenumber implements the certificate number format and the
// gap-aware sequence arithmetic behind the allocator.
package uniquenumber

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SequenceWidth is the zero-padding applied to newly issued sequences.
const SequenceWidth = 3

// Validation errors. Each blocks a single assignment and surfaces as a
// field-level message; none of them is fatal.
var (
	ErrBadFormat = errors.New("unique number must look like 3534-001")
	ErrDuplicate = errors.New("unique number is already taken")
	ErrSkipsGap  = errors.New("unique number skips an open gap")
)

// numberPattern matches <prefix>-<sequence>: a per-year tenant code followed
// by a zero-padded ordinal.
var numberPattern = regexp.MustCompile(`^[0-9]{2,6}-[0-9]{3,6}$`)

// IsValidFormat reports whether candidate matches the prefix-sequence shape.
func IsValidFormat(candidate string) bool {
	return numberPattern.MatchString(candidate)
}

// Parse splits a unique number into its prefix and sequence.
func Parse(candidate string) (prefix string, sequence int, err error) {
	if !IsValidFormat(candidate) {
		return "", 0, ErrBadFormat
	}
	parts := strings.SplitN(candidate, "-", 2)
	seq, err := strconv.Atoi(parts[1])
	if err != nil || seq <= 0 {
		return "", 0, ErrBadFormat
	}
	return parts[0], seq, nil
}

// Format renders a unique number from its parts.
func Format(prefix string, sequence int) string {
	return fmt.Sprintf("%s-%0*d", prefix, SequenceWidth, sequence)
}

// Sequences extracts the sorted, de-duplicated sequence numbers carried by
// existing unique numbers sharing the given prefix. Numbers with another
// prefix or a malformed shape are ignored.
func Sequences(numbers []string, prefix string) []int {
	seen := make(map[int]bool)
	for _, n := range numbers {
		p, seq, err := Parse(n)
		if err != nil || p != prefix {
			continue
		}
		seen[seq] = true
	}
	out := make([]int, 0, len(seen))
	for seq := range seen {
		out = append(out, seq)
	}
	sort.Ints(out)
	return out
}

// MaxSequence returns the highest issued sequence for the prefix, or 0 when
// none exists.
func MaxSequence(numbers []string, prefix string) int {
	seqs := Sequences(numbers, prefix)
	if len(seqs) == 0 {
		return 0
	}
	return seqs[len(seqs)-1]
}

// NextSequence returns max(sequence) + 1 for the prefix. O(n) over existing
// numbers; cohorts are bounded per year so the scan stays cheap.
func NextSequence(numbers []string, prefix string) int {
	return MaxSequence(numbers, prefix) + 1
}

// FindGap returns the smallest missing sequence strictly below the current
// maximum for the prefix. The second return is false when the issued
// sequence 1..max is contiguous or nothing has been issued.
func FindGap(numbers []string, prefix string) (int, bool) {
	seqs := Sequences(numbers, prefix)
	if len(seqs) == 0 {
		return 0, false
	}
	expected := 1
	for _, seq := range seqs {
		if seq > expected {
			return expected, true
		}
		expected = seq + 1
	}
	return 0, false
}
