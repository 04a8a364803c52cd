package news

import (
	"strings"

	"tickerpulse/models"
)

// DuplicateFilter removes near-duplicate articles that multiple collectors
// surface for the same underlying story. Two articles are duplicates if
// they share a URL, or their titles or content are similar enough under a
// normalised longest-common-subsequence ratio.
type DuplicateFilter struct {
	TitleSimilarityThreshold   float64
	ContentSimilarityThreshold float64
	// PreferSource, if set, makes a duplicate from this source replace the
	// entry already kept, instead of the default first-seen-wins behaviour.
	PreferSource string
}

func NewDuplicateFilter() *DuplicateFilter {
	return &DuplicateFilter{
		TitleSimilarityThreshold:   0.9,
		ContentSimilarityThreshold: 0.85,
	}
}

// RemoveDuplicates returns articles with duplicates collapsed, keeping the
// first-seen copy of each story unless PreferSource names the duplicate's
// source, in which case that copy replaces the kept one.
func (f *DuplicateFilter) RemoveDuplicates(articles []models.Article) []models.Article {
	kept := make([]models.Article, 0, len(articles))

	for _, a := range articles {
		dupIdx := -1
		for i, k := range kept {
			if f.isDuplicate(a, k) {
				dupIdx = i
				break
			}
		}
		if dupIdx == -1 {
			kept = append(kept, a)
			continue
		}
		if f.PreferSource != "" && a.Source == f.PreferSource && kept[dupIdx].Source != f.PreferSource {
			kept[dupIdx] = a
		}
	}
	return kept
}

// FindDuplicates returns index groups (into the input slice) of articles
// considered duplicates of one another, for diagnostics.
func (f *DuplicateFilter) FindDuplicates(articles []models.Article) [][]int {
	visited := make([]bool, len(articles))
	groups := make([][]int, 0)

	for i := range articles {
		if visited[i] {
			continue
		}
		group := []int{i}
		visited[i] = true
		for j := i + 1; j < len(articles); j++ {
			if visited[j] {
				continue
			}
			if f.isDuplicate(articles[i], articles[j]) {
				group = append(group, j)
				visited[j] = true
			}
		}
		if len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

func (f *DuplicateFilter) isDuplicate(a, b models.Article) bool {
	if a.URL != "" && b.URL != "" && a.URL == b.URL {
		return true
	}
	if lcsRatio(strings.ToLower(a.Title), strings.ToLower(b.Title)) >= f.TitleSimilarityThreshold {
		return true
	}
	aContent := strings.ToLower(contentOrSummary(a))
	bContent := strings.ToLower(contentOrSummary(b))
	if aContent == "" || bContent == "" {
		return false
	}
	return lcsRatio(aContent, bContent) >= f.ContentSimilarityThreshold
}

func contentOrSummary(a models.Article) string {
	if a.Content != "" {
		return a.Content
	}
	return a.Summary
}

// lcsRatio returns the length of the longest common subsequence of a and b,
// normalised by the length of the longer string.
func lcsRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcsLen := prev[len(rb)]
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return float64(lcsLen) / float64(maxLen)
}
