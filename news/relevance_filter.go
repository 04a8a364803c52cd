package news

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"tickerpulse/models"
)

// RelevanceFilter scores how specifically an article pertains to a symbol
// using weighted keyword matching over title/content/summary.
type RelevanceFilter struct{}

func NewRelevanceFilter() *RelevanceFilter {
	return &RelevanceFilter{}
}

// ScoreArticles computes and assigns RelevanceScore on each article in
// place (returning the same slice for convenience).
func (f *RelevanceFilter) ScoreArticles(articles []models.Article, symbol string) []models.Article {
	primary, secondary := KeywordsFor(symbol)

	for i := range articles {
		articles[i].RelevanceScore = scoreArticle(articles[i], symbol, primary, secondary)
	}
	return articles
}

func scoreArticle(article models.Article, symbol string, primary, secondary []string) float64 {
	title := strings.ToLower(article.Title)
	content := strings.ToLower(article.Content + " " + article.Summary)

	var score float64
	anyMatch := false

	for _, kw := range primary {
		lkw := strings.ToLower(kw)
		if lkw == "" {
			continue
		}
		if strings.Contains(title, lkw) || strings.Contains(content, lkw) {
			score += 0.7
			anyMatch = true
		}
	}
	for _, kw := range secondary {
		lkw := strings.ToLower(kw)
		if lkw == "" {
			continue
		}
		if strings.Contains(title, lkw) || strings.Contains(content, lkw) {
			score += 0.3
			anyMatch = true
		}
	}

	if strings.Contains(title, strings.ToLower(symbol)) {
		score *= 1.8
	} else if titleContainsTopKeywords(title, primary, secondary) {
		score *= 1.5
	} else if contentContainsAny(content, primary) {
		score *= 1.2
	}

	if anyMatch && score < 0.35 {
		score = 0.35
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func titleContainsTopKeywords(title string, primary, secondary []string) bool {
	top := append(append([]string{}, primary...), secondary...)
	if len(top) > 3 {
		top = top[:3]
	}
	for _, kw := range top {
		if kw == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func contentContainsAny(content string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(content, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// FilterByThreshold keeps only articles with RelevanceScore >= min.
func (f *RelevanceFilter) FilterByThreshold(articles []models.Article, min float64) []models.Article {
	return lo.Filter(articles, func(a models.Article, _ int) bool {
		return a.RelevanceScore >= min
	})
}

// SortByRelevance sorts articles by RelevanceScore, descending when desc is
// true. Ties are broken by PublishedAt descending (most recent first-seen
// wins) to keep ordering deterministic.
func (f *RelevanceFilter) SortByRelevance(articles []models.Article, desc bool) []models.Article {
	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].RelevanceScore != articles[j].RelevanceScore {
			if desc {
				return articles[i].RelevanceScore > articles[j].RelevanceScore
			}
			return articles[i].RelevanceScore < articles[j].RelevanceScore
		}
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles
}
