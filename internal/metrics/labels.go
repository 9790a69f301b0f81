package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HighwayLabel formats a raw highway code for display. Integer codes,
// including float text such as "55.0", become a zero-padded three digit
// code; anything else keeps its literal text. Both get prefix.
func HighwayLabel(prefix, raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && f == math.Trunc(f) {
		return fmt.Sprintf("%s%03d", prefix, int64(f))
	}
	return prefix + s
}

// titleCase normalizes an occurrence label so that spellings differing only
// in capitalization group together. A letter after an apostrophe starts a
// word, so "QUEDA D'ÁGUA" becomes "Queda D'Água".
func titleCase(caser cases.Caser, s string) string {
	out := []rune(caser.String(s))
	for i := 1; i < len(out); i++ {
		if (out[i-1] == '\'' || out[i-1] == '’') && unicode.IsLower(out[i]) {
			out[i] = unicode.ToUpper(out[i])
		}
	}
	return string(out)
}

// newTitleCaser returns a caser for one grouping pass. Casers keep state and
// must not be shared between goroutines.
func newTitleCaser() cases.Caser {
	return cases.Title(language.Und)
}
