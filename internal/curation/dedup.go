package curation

import "github.com/iabetor/feeddigest/internal/rss"

// Dedup 按 URL 精确匹配去重，保留首次出现的条目及其相对顺序。
func Dedup(candidates []rss.Candidate) []rss.Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]rss.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		out = append(out, c)
	}
	return out
}
