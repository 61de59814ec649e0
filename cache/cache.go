// Package cache keeps fetched papers in a local SQLite database.
//
// Fetches always produce fresh records. The cache merges them by identifier:
// metadata is replaced with the newest copy while the favorite state a user
// set is kept.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tmc/arxivfeed"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a paper is not in the cache.
var ErrNotFound = errors.New("paper not in cache")

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// paperRow is the stored form of a paper. Timestamps are kept as
// fixed-width text so ORDER BY works without driver time conversion.
type paperRow struct {
	ID          string  `gorm:"primaryKey"`
	Title       string  `gorm:"not null"`
	Summary     string  `gorm:"not null"`
	Authors     string  `gorm:"not null"`
	PublishedAt string  `gorm:"not null;index:papers_published"`
	UpdatedAt   *string `gorm:"column:updated_at"`
	PDFURL      string  `gorm:"column:pdf_url;not null"`
	WebURL      string  `gorm:"column:web_url;not null"`
	Categories  string  `gorm:"not null"`
	IsFavorite  bool    `gorm:"not null;index:papers_favorite,priority:1"`
	FavoritedAt *string `gorm:"index:papers_favorite,priority:2"`
	FetchedAt   string  `gorm:"not null"`
}

func (paperRow) TableName() string { return "papers" }

// mergeColumns are replaced on conflict. The favorite columns are not.
var mergeColumns = []string{
	"title", "summary", "authors", "published_at", "updated_at",
	"pdf_url", "web_url", "categories", "fetched_at",
}

// FTS5 is not expressible through AutoMigrate.
const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
	title, summary, authors,
	content='papers', content_rowid='rowid'
);
CREATE TRIGGER IF NOT EXISTS papers_fts_insert AFTER INSERT ON papers BEGIN
	INSERT INTO papers_fts(rowid, title, summary, authors)
	VALUES (new.rowid, new.title, new.summary, new.authors);
END;
CREATE TRIGGER IF NOT EXISTS papers_fts_delete AFTER DELETE ON papers BEGIN
	INSERT INTO papers_fts(papers_fts, rowid, title, summary, authors)
	VALUES ('delete', old.rowid, old.title, old.summary, old.authors);
END;
CREATE TRIGGER IF NOT EXISTS papers_fts_update AFTER UPDATE OF title, summary, authors ON papers BEGIN
	INSERT INTO papers_fts(papers_fts, rowid, title, summary, authors)
	VALUES ('delete', old.rowid, old.title, old.summary, old.authors);
	INSERT INTO papers_fts(rowid, title, summary, authors)
	VALUES (new.rowid, new.title, new.summary, new.authors);
END;
`

// Cache is a SQLite-backed paper store.
type Cache struct {
	db     *gorm.DB
	recent *lru[string, arxivfeed.Paper]
	now    func() time.Time
}

// recentSize bounds the in-memory copy of recently read papers.
const recentSize = 4096

// Open opens or creates a cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	// modernc registers as "sqlite" and ships FTS5 without cgo.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY on merges.
	sqlDB.SetMaxOpenConns(1)

	c := &Cache{db: db, recent: newLRU[string, arxivfeed.Paper](recentSize), now: time.Now}
	if err := c.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return c, nil
}

func (c *Cache) initSchema() error {
	if err := c.db.AutoMigrate(&paperRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return c.db.Exec(ftsSchema).Error
}

// Close closes the cache database.
func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MergeStats reports what a merge changed.
type MergeStats struct {
	Inserted int
	Updated  int
}

// Merge upserts papers by identifier. Favorite state already in the cache
// is preserved.
func (c *Cache) Merge(ctx context.Context, papers []arxivfeed.Paper) (MergeStats, error) {
	var stats MergeStats
	now := formatTime(c.now())

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range papers {
			var n int64
			if err := tx.Model(&paperRow{}).Where("id = ?", p.ID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				stats.Inserted++
			} else {
				stats.Updated++
			}

			row := toRow(p)
			row.FetchedAt = now
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(mergeColumns),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("store paper %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return MergeStats{}, err
	}
	for _, p := range papers {
		c.recent.remove(p.ID)
	}
	return stats, nil
}

// Get returns a cached paper.
func (c *Cache) Get(ctx context.Context, id string) (*arxivfeed.Paper, error) {
	if p, ok := c.recent.get(id); ok {
		return &p, nil
	}
	var row paperRow
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	p := row.paper()
	c.recent.put(id, p)
	return &p, nil
}

// SetFavorite marks or unmarks a cached paper and returns its new state.
func (c *Cache) SetFavorite(ctx context.Context, id string, on bool) (*arxivfeed.Paper, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.SetFavorite(on, c.now())

	err = c.db.WithContext(ctx).Model(&paperRow{}).Where("id = ?", id).Updates(map[string]any{
		"is_favorite":  p.IsFavorite(),
		"favorited_at": formatTimePtr(p.FavoritedAt()),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update favorite: %w", err)
	}
	c.recent.put(id, *p)
	return p, nil
}

// Favorites lists favorite papers, most recently favorited first.
func (c *Cache) Favorites(ctx context.Context) ([]arxivfeed.Paper, error) {
	var rows []paperRow
	err := c.db.WithContext(ctx).
		Where("is_favorite = ?", true).
		Order("favorited_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toPapers(rows), nil
}

// List lists cached papers, newest first, optionally filtered by a category
// key. A full term such as "cs.AI" matches that term only; an archive such
// as "cs" matches every term in it.
func (c *Cache) List(ctx context.Context, category string, limit int) ([]arxivfeed.Paper, error) {
	if limit <= 0 {
		limit = 100
	}
	q := c.db.WithContext(ctx).Model(&paperRow{})
	if category != "" {
		term := escapeLike(category)
		q = q.Where(categoryClause("categories"), term, term)
	}
	var rows []paperRow
	if err := q.Order("published_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toPapers(rows), nil
}

// Stats contains statistics about the cache.
type Stats struct {
	TotalPapers int64
	Favorites   int64
}

// Stats returns cache statistics.
func (c *Cache) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if err := c.db.WithContext(ctx).Model(&paperRow{}).Count(&stats.TotalPapers).Error; err != nil {
		return nil, err
	}
	if err := c.db.WithContext(ctx).Model(&paperRow{}).Where("is_favorite = ?", true).Count(&stats.Favorites).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// categoryClause matches a comma-separated category column against a
// whole term or an archive prefix. It takes the escaped key twice.
func categoryClause(col string) string {
	padded := `(', ' || ` + col + ` || ', ')`
	return `(` + padded + ` LIKE '%, ' || ? || ', %' ESCAPE '\' OR ` +
		padded + ` LIKE '%, ' || ? || '.%' ESCAPE '\')`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toRow(p arxivfeed.Paper) paperRow {
	return paperRow{
		ID:          p.ID,
		Title:       p.Title,
		Summary:     p.Summary,
		Authors:     p.Authors,
		PublishedAt: formatTime(p.PublishedAt),
		UpdatedAt:   formatTimePtr(p.UpdatedAt),
		PDFURL:      p.PDFURL,
		WebURL:      p.WebURL,
		Categories:  p.Categories,
		IsFavorite:  p.IsFavorite(),
		FavoritedAt: formatTimePtr(p.FavoritedAt()),
	}
}

func (r paperRow) paper() arxivfeed.Paper {
	p := arxivfeed.Paper{
		ID:         r.ID,
		Title:      r.Title,
		Summary:    r.Summary,
		Authors:    r.Authors,
		PDFURL:     r.PDFURL,
		WebURL:     r.WebURL,
		Categories: r.Categories,
	}
	p.PublishedAt, _ = time.Parse(timeLayout, r.PublishedAt)
	if r.UpdatedAt != nil {
		if t, err := time.Parse(timeLayout, *r.UpdatedAt); err == nil {
			p.UpdatedAt = &t
		}
	}
	if r.IsFavorite {
		var at time.Time
		if r.FavoritedAt != nil {
			at, _ = time.Parse(timeLayout, *r.FavoritedAt)
		}
		p.SetFavorite(true, at)
	}
	return p
}

func toPapers(rows []paperRow) []arxivfeed.Paper {
	if len(rows) == 0 {
		return nil
	}
	out := make([]arxivfeed.Paper, len(rows))
	for i, r := range rows {
		out[i] = r.paper()
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
