// Package strings provides the text helpers used by the status renderers.
package strings

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Truncate shortens s to at most n runes, ending in "...". n is at least 4.
func Truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// Indent prefixes every non-empty line of s.
func Indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Percent formats a [0,1] fraction as a whole percentage.
func Percent(f float64) string {
	return strconv.Itoa(int(f*100+0.5)) + "%"
}

// WordWrap breaks lines longer than width on word boundaries. Existing
// newlines are kept and ANSI colour codes do not count toward the width.
// A word longer than width gets a line of its own.
func WordWrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = wrapLine(line, width)
		}
	}
	return strings.Join(lines, "\n")
}

func wrapLine(line string, width int) string {
	var out, cur []string
	n := 0
	for _, word := range strings.Fields(line) {
		w := lipgloss.Width(word)
		if len(cur) > 0 && n+1+w > width {
			out = append(out, strings.Join(cur, " "))
			cur, n = nil, 0
		}
		if len(cur) > 0 {
			n++
		}
		cur = append(cur, word)
		n += w
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return strings.Join(out, "\n")
}
