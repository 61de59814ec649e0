package arxivfeed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperSetFavorite(t *testing.T) {
	var p Paper
	assert.False(t, p.IsFavorite())
	assert.Nil(t, p.FavoritedAt())

	first := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	p.SetFavorite(true, first)
	assert.True(t, p.IsFavorite())
	require.NotNil(t, p.FavoritedAt())
	assert.Equal(t, first, *p.FavoritedAt())

	// Setting it again keeps the original timestamp.
	p.SetFavorite(true, first.Add(time.Hour))
	assert.Equal(t, first, *p.FavoritedAt())

	p.SetFavorite(false, first.Add(2*time.Hour))
	assert.False(t, p.IsFavorite())
	assert.Nil(t, p.FavoritedAt())

	p.SetFavorite(false, first.Add(3*time.Hour))
	assert.Nil(t, p.FavoritedAt())
}

func TestPaperHelpers(t *testing.T) {
	p := Paper{
		ID:         "2310.12345v3",
		Authors:    "Ada Lovelace, Alan Turing",
		Categories: "cs.LG, stat.ML",
	}
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, p.AuthorList())
	assert.Equal(t, []string{"cs.LG", "stat.ML"}, p.CategoryList())
	assert.Equal(t, "cs.LG", p.PrimaryCategory())
	assert.Equal(t, "2310.12345", p.BaseID())
	assert.Equal(t, "https://arxiv.org/abs/2310.12345v3", p.AbstractURL())

	p.WebURL = "http://arxiv.org/abs/2310.12345v3"
	assert.Equal(t, p.WebURL, p.AbstractURL())

	assert.Equal(t, "9901001", (&Paper{ID: "9901001"}).BaseID())
	assert.Equal(t, "solv-int", (&Paper{ID: "solv-int"}).BaseID())
	assert.Empty(t, (&Paper{}).PrimaryCategory())
}

func TestPaperMarshalJSON(t *testing.T) {
	published := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	p := Paper{ID: "2310.00001v1", Title: "Example Title", Authors: "A. Researcher", PublishedAt: published}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "2310.00001v1", got["id"])
	assert.Equal(t, false, got["is_favorite"])
	assert.NotContains(t, got, "favorited_at")
	assert.NotContains(t, got, "updated_at")

	p.SetFavorite(true, published.Add(time.Hour))
	data, err = json.Marshal(&p)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, true, got["is_favorite"])
	assert.Equal(t, "2023-10-01T01:00:00Z", got["favorited_at"])
}
