package core

import (
	"sort"
	"strings"
)

// Filter returns the transactions matching all of the given constraints,
// sorted by timestamp descending (newest first). The search term matches
// case-insensitively against the description or the human-readable
// category label. Empty values mean "no constraint", so Filter with all
// arguments empty returns the full set in recency order.
func Filter(txs []Transaction, search string, category Category, typ TransactionType) []Transaction {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if term != "" {
			desc := strings.ToLower(t.Description)
			label := strings.ToLower(t.Category.Label())
			if !strings.Contains(desc, term) && !strings.Contains(label, term) {
				continue
			}
		}
		if category != "" && t.Category != category {
			continue
		}
		if typ != "" && t.Type != typ {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}
