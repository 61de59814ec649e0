package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/tmc/arxivfeed"
)

// Search finds cached papers whose title, summary or authors match every
// word of query, best match first. A non-empty category narrows the result
// to papers in that category term or archive.
func (c *Cache) Search(ctx context.Context, query, category string, limit int) ([]arxivfeed.Paper, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	q := `
		SELECT p.*
		FROM papers p
		JOIN papers_fts fts ON p.rowid = fts.rowid
		WHERE papers_fts MATCH ?`
	args := []any{match}
	if category != "" {
		term := escapeLike(category)
		q += ` AND ` + categoryClause("p.categories")
		args = append(args, term, term)
	}
	q += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	var rows []paperRow
	if err := c.db.WithContext(ctx).Raw(q, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toPapers(rows), nil
}

// ftsQuery quotes each word so punctuation in user input is never read as
// FTS5 syntax.
func ftsQuery(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(words, " ")
}

// RebuildIndex repopulates the full-text index from the papers table.
func (c *Cache) RebuildIndex(ctx context.Context) error {
	return c.db.WithContext(ctx).Exec(`INSERT INTO papers_fts(papers_fts) VALUES ('rebuild')`).Error
}

// CategoryCount is a category term with its number of cached papers.
type CategoryCount struct {
	Name  string
	Count int
}

// Categories counts cached papers per category term, most common first.
func (c *Cache) Categories(ctx context.Context) ([]CategoryCount, error) {
	var all []string
	err := c.db.WithContext(ctx).Model(&paperRow{}).
		Where("categories != ?", "").
		Pluck("categories", &all).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, cats := range all {
		p := arxivfeed.Paper{Categories: cats}
		for _, cat := range p.CategoryList() {
			counts[cat]++
		}
	}

	result := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		result = append(result, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}
