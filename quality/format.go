package quality

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deepresearch/core/search"
)

const rawExcerptPromptLimit = 500

// FormatSearchResults renders results as the numbered prompt blocks every
// writer/critic/gap-analysis call consumes, matching
// format_search_results's field order and "N/A"/"unknown" placeholders.
func FormatSearchResults(results []search.Result) string {
	blocks := make([]string, 0, len(results))
	for idx, r := range results {
		title := r.Title
		if title == "" {
			title = "N/A"
		}
		date := r.PublishedAt
		if date == "" {
			date = "unknown"
		}
		summary := r.Snippet
		raw := r.RawExcerpt
		if len(raw) > rawExcerptPromptLimit {
			raw = raw[:rawExcerptPromptLimit]
		}

		block := fmt.Sprintf(
			"[%d]\n标题: %s\n日期: %s\n评分: %s\n链接: %s\n摘要: %s\n原文: %s",
			idx+1, title, date, strconv.FormatFloat(r.Score, 'g', -1, 64), r.URL, summary, raw,
		)
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}
