package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/arxivfeed"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "papers.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testPapers() []arxivfeed.Paper {
	updated := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)
	return []arxivfeed.Paper{
		{
			ID:          "2401.00001v1",
			Title:       "Attention Is Still All You Need",
			Summary:     "We revisit attention in transformers.",
			Authors:     "Grace Hopper, Edsger Dijkstra",
			PublishedAt: time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC),
			PDFURL:      "http://arxiv.org/pdf/2401.00001v1",
			WebURL:      "http://arxiv.org/abs/2401.00001v1",
			Categories:  "cs.LG, cs.AI",
		},
		{
			ID:          "2401.00002v2",
			Title:       "Spin Glasses Revisited",
			Summary:     "A short abstract about disorder.",
			Authors:     "Barbara Liskov",
			PublishedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:   &updated,
			Categories:  "cond-mat.dis-nn, cs.LG",
		},
	}
}

func TestMergeAndGet(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	stats, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)
	assert.Equal(t, MergeStats{Inserted: 2}, stats)

	p, err := c.Get(ctx, "2401.00002v2")
	require.NoError(t, err)
	assert.Equal(t, "Spin Glasses Revisited", p.Title)
	assert.Equal(t, "Barbara Liskov", p.Authors)
	assert.True(t, p.PublishedAt.Equal(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	require.NotNil(t, p.UpdatedAt)
	assert.True(t, p.UpdatedAt.Equal(time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)))
	assert.False(t, p.IsFavorite())

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMergePreservesFavorites(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	favAt := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return favAt }

	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	p, err := c.SetFavorite(ctx, "2401.00001v1", true)
	require.NoError(t, err)
	assert.True(t, p.IsFavorite())

	fresh := testPapers()
	fresh[0].Title = "Attention Is Still All You Need (v2 title)"
	stats, err := c.Merge(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, MergeStats{Updated: 2}, stats)

	p, err = c.Get(ctx, "2401.00001v1")
	require.NoError(t, err)
	assert.Equal(t, "Attention Is Still All You Need (v2 title)", p.Title)
	assert.True(t, p.IsFavorite())
	require.NotNil(t, p.FavoritedAt())
	assert.True(t, p.FavoritedAt().Equal(favAt))
}

func TestSetFavoriteTransitions(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	first := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return first }
	_, err = c.SetFavorite(ctx, "2401.00002v2", true)
	require.NoError(t, err)

	c.now = func() time.Time { return first.Add(time.Hour) }
	p, err := c.SetFavorite(ctx, "2401.00002v2", true)
	require.NoError(t, err)
	assert.True(t, p.FavoritedAt().Equal(first), "re-favoriting keeps the first timestamp")

	favs, err := c.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "2401.00002v2", favs[0].ID)

	p, err = c.SetFavorite(ctx, "2401.00002v2", false)
	require.NoError(t, err)
	assert.False(t, p.IsFavorite())
	assert.Nil(t, p.FavoritedAt())

	favs, err = c.Favorites(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)

	_, err = c.SetFavorite(ctx, "missing", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndStats(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	all, err := c.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2401.00001v1", all[0].ID, "newest first")

	condMat, err := c.List(ctx, "cond-mat", 10)
	require.NoError(t, err)
	require.Len(t, condMat, 1)
	assert.Equal(t, "2401.00002v2", condMat[0].ID)

	one, err := c.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = c.SetFavorite(ctx, "2401.00001v1", true)
	require.NoError(t, err)
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalPapers)
	assert.EqualValues(t, 1, stats.Favorites)
}

func TestCategoryFilterMatchesWholeTerms(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	optics := arxivfeed.Paper{
		ID:          "2401.00003v1",
		Title:       "Optics Without Lenses",
		Authors:     "Ada Lovelace",
		PublishedAt: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
		Categories:  "physics.optics",
	}
	_, err := c.Merge(ctx, append(testPapers(), optics))
	require.NoError(t, err)

	tests := []struct {
		category string
		want     []string
	}{
		{"cs", []string{"2401.00001v1", "2401.00002v2"}},
		{"cs.LG", []string{"2401.00001v1", "2401.00002v2"}},
		{"cs.AI", []string{"2401.00001v1"}},
		{"cs.A", nil},
		{"physics", []string{"2401.00003v1"}},
		{"physics.optics", []string{"2401.00003v1"}},
		{"optics", nil},
		{"cs_LG", nil},
		{"%", nil},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got, err := c.List(ctx, tt.category, 10)
			require.NoError(t, err)
			var ids []string
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}

	got, err := c.Search(ctx, "optics", "cs", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Search(ctx, "optics", "physics", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2401.00003v1", got[0].ID)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	got, err := c.Search(ctx, "attention", "", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2401.00001v1", got[0].ID)

	got, err = c.Search(ctx, "liskov", "", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2401.00002v2", got[0].ID)

	got, err = c.Search(ctx, "attention", "cond-mat", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Punctuation must not be parsed as query syntax.
	_, err = c.Search(ctx, `"unbalanced AND cs.LG:`, "", 10)
	require.NoError(t, err)

	got, err = c.Search(ctx, "   ", "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchFollowsUpdates(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	fresh := testPapers()[:1]
	fresh[0].Title = "Convolutions Strike Back"
	fresh[0].Summary = "No mention of the old topic."
	_, err = c.Merge(ctx, fresh)
	require.NoError(t, err)

	got, err := c.Search(ctx, "attention", "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Search(ctx, "convolutions", "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, c.RebuildIndex(ctx))
	got, err = c.Search(ctx, "convolutions", "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	cats, err := c.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{
		{Name: "cs.LG", Count: 2},
		{Name: "cond-mat.dis-nn", Count: 1},
		{Name: "cs.AI", Count: 1},
	}, cats)
}

func TestGetServesRecentCopy(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)
	_, err := c.Merge(ctx, testPapers())
	require.NoError(t, err)

	_, err = c.Get(ctx, "2401.00001v1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.recent.len())

	// A merge invalidates the memoized copy.
	fresh := testPapers()[:1]
	fresh[0].Title = "Renamed"
	_, err = c.Merge(ctx, fresh)
	require.NoError(t, err)
	assert.Zero(t, c.recent.len())

	p, err := c.Get(ctx, "2401.00001v1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Title)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	l := newLRU[string, int](2)
	l.put("a", 1)
	l.put("b", 2)
	_, ok := l.get("a")
	require.True(t, ok)

	l.put("c", 3)
	_, ok = l.get("b")
	assert.False(t, ok, "b was least recently used")

	v, ok := l.get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	l.put("a", 10)
	v, _ = l.get("a")
	assert.Equal(t, 10, v)

	l.remove("a")
	assert.Equal(t, 1, l.len())
}
