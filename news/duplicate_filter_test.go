package news

import (
	"testing"

	"tickerpulse/models"
)

func TestRemoveDuplicates_SameURL(t *testing.T) {
	f := NewDuplicateFilter()
	articles := []models.Article{
		{ID: "a", Title: "Apple unveils new chip", URL: "https://x.test/1"},
		{ID: "b", Title: "Completely different headline about bananas", URL: "https://x.test/1"},
	}

	out := f.RemoveDuplicates(articles)

	if len(out) != 1 {
		t.Fatalf("expected 1 article after URL dedupe, got %d", len(out))
	}
	if out[0].ID != "a" {
		t.Errorf("expected first-seen article kept, got %s", out[0].ID)
	}
}

func TestRemoveDuplicates_SimilarTitle(t *testing.T) {
	f := NewDuplicateFilter()
	articles := []models.Article{
		{ID: "a", Title: "Apple reports record quarterly revenue growth", URL: "https://x.test/1"},
		{ID: "b", Title: "Apple reports record quarterly revenue growth.", URL: "https://y.test/2"},
	}

	out := f.RemoveDuplicates(articles)

	if len(out) != 1 {
		t.Fatalf("expected near-identical titles to dedupe, got %d", len(out))
	}
}

func TestRemoveDuplicates_DistinctArticlesKept(t *testing.T) {
	f := NewDuplicateFilter()
	articles := []models.Article{
		{ID: "a", Title: "Apple unveils new chip architecture", URL: "https://x.test/1"},
		{ID: "b", Title: "Regulators open antitrust probe into tech giant", URL: "https://x.test/2"},
	}

	out := f.RemoveDuplicates(articles)

	if len(out) != 2 {
		t.Errorf("expected distinct articles to both survive, got %d", len(out))
	}
}

func TestRemoveDuplicates_PreferSource(t *testing.T) {
	f := NewDuplicateFilter()
	f.PreferSource = "Reuters"
	articles := []models.Article{
		{ID: "a", Title: "Apple reports record quarterly revenue growth", Source: "RandomBlog", URL: "https://x.test/1"},
		{ID: "b", Title: "Apple reports record quarterly revenue growth", Source: "Reuters", URL: "https://y.test/2"},
	}

	out := f.RemoveDuplicates(articles)

	if len(out) != 1 {
		t.Fatalf("expected duplicate collapsed, got %d", len(out))
	}
	if out[0].ID != "b" {
		t.Errorf("expected preferred-source article to replace kept entry, got %s", out[0].ID)
	}
}

func TestFindDuplicates_GroupsMatchingArticles(t *testing.T) {
	f := NewDuplicateFilter()
	articles := []models.Article{
		{ID: "a", Title: "Apple reports record quarterly revenue growth", URL: "https://x.test/1"},
		{ID: "b", Title: "Apple reports record quarterly revenue growth", URL: "https://y.test/2"},
		{ID: "c", Title: "Unrelated story about city council elections", URL: "https://z.test/3"},
	}

	groups := f.FindDuplicates(articles)

	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	if len(groups[0]) != 2 {
		t.Errorf("expected duplicate group of size 2, got %d", len(groups[0]))
	}
}

func TestLCSRatio_IdenticalStrings(t *testing.T) {
	if r := lcsRatio("hello world", "hello world"); r != 1 {
		t.Errorf("expected ratio 1 for identical strings, got %f", r)
	}
}

func TestLCSRatio_EmptyStrings(t *testing.T) {
	if r := lcsRatio("", ""); r != 1 {
		t.Errorf("expected ratio 1 for two empty strings, got %f", r)
	}
	if r := lcsRatio("abc", ""); r != 0 {
		t.Errorf("expected ratio 0 when one string is empty, got %f", r)
	}
}
