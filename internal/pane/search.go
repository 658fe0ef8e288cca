package pane

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// filterOptions returns the options whose label matches query. Fuzzy matches
// win; a plain substring match on label or key is the fallback.
func filterOptions(opts []Option, query string) []Option {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return opts
	}
	labels := make([]string, len(opts))
	for i, opt := range opts {
		labels[i] = opt.Label
	}
	ranks := fuzzy.RankFindNormalizedFold(trimmed, labels)
	if len(ranks) > 0 {
		matches := make(map[int]struct{}, len(ranks))
		for _, rank := range ranks {
			matches[rank.OriginalIndex] = struct{}{}
		}
		filtered := make([]Option, 0, len(matches))
		for idx, opt := range opts {
			if _, ok := matches[idx]; ok {
				filtered = append(filtered, opt)
			}
		}
		return filtered
	}
	lower := strings.ToLower(trimmed)
	filtered := make([]Option, 0, len(opts))
	for _, opt := range opts {
		if strings.Contains(strings.ToLower(opt.Label), lower) || strings.Contains(strings.ToLower(opt.Key), lower) {
			filtered = append(filtered, opt)
		}
	}
	return filtered
}
