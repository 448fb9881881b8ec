// Package seq asserts that lines of output appear in a given order.
//
// A sequence is strict about the lines it names: each must appear exactly
// where the sequence says, and nowhere else. Lines the sequence doesn't
// mention are ignored.
package seq

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func AssertStringContainsSequence(t *testing.T, str string, seq ...string) {
	t.Helper()
	assert.NoError(t, StringContainsSequence(str, seq...))
}

func AssertContainsSequence(t *testing.T, lines []string, seq ...string) {
	t.Helper()
	assert.NoError(t, ContainsSequence(lines, seq...))
}

func StringContainsSequence(str string, seq ...string) error {
	return ContainsSequence(strings.Split(str, "\n"), seq...)
}

func ContainsSequence(lines []string, seq ...string) error {
	asserted := map[string]struct{}{}
	for _, l := range seq {
		asserted[l] = struct{}{}
	}

	next := 0
	for _, line := range lines {
		if _, isAsserted := asserted[line]; !isAsserted {
			continue
		}
		if next == len(seq) {
			return report(seq, lines, "Found '%s' after the entire sequence was consumed.", line)
		}
		if line != seq[next] {
			return report(seq, lines, "Found '%s' while looking for sequence item %d, '%s'.", line, next+1, seq[next])
		}
		next++
	}
	if next != len(seq) {
		return report(seq, lines, "Sequence item %d, '%s', not found.", next+1, seq[next])
	}
	return nil
}

func report(seq, lines []string, f string, args ...any) error {
	return fmt.Errorf("%s\n\nSequence:\n%s\n\nActual:\n%s",
		fmt.Sprintf(f, args...),
		strings.Join(seq, "\n"),
		strings.Join(lines, "\n"))
}
