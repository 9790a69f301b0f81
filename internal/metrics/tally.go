package metrics

import (
	"sort"

	"accidentscli/pkg/contracts/domain"
)

// tally counts keys while remembering first-seen order, which is the tie
// break of every ranking.
type tally struct {
	keys   []string
	counts map[string]int
	raw    map[string]string
}

func newTally() *tally {
	return &tally{counts: make(map[string]int), raw: make(map[string]string)}
}

// add counts one occurrence of key. raw is the first source value seen for
// the key and is kept for display.
func (t *tally) add(key, raw string) {
	if _, ok := t.counts[key]; !ok {
		t.keys = append(t.keys, key)
		t.raw[key] = raw
	}
	t.counts[key]++
}

func (t *tally) total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// ranked returns the keys by descending count, ties in first-seen order
func (t *tally) ranked() []string {
	keys := append([]string(nil), t.keys...)
	sort.SliceStable(keys, func(i, j int) bool {
		return t.counts[keys[i]] > t.counts[keys[j]]
	})
	return keys
}

// top returns at most n ranked count rows with their share of the tally
func (t *tally) top(n int, label func(key string) string) []domain.CountRow {
	keys := t.ranked()
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	total := t.total()
	rows := make([]domain.CountRow, 0, len(keys))
	for _, k := range keys {
		row := domain.CountRow{Key: t.raw[k], Count: t.counts[k], Share: ratePct(float64(t.counts[k]), float64(total))}
		if label != nil {
			row.Label = label(k)
		}
		rows = append(rows, row)
	}
	return rows
}

// ratePct returns num/den*100, or 0 when den is 0
func ratePct(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den * 100
}

// variationPct returns the relative change from a to b in percent, or 0
// when a is 0
func variationPct(a, b float64) float64 {
	if a == 0 {
		return 0
	}
	return (b - a) / a * 100
}
