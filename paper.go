package arxivfeed

import (
	"encoding/json"
	"strings"
	"time"
)

// Paper is one arXiv entry as returned by a fetch.
type Paper struct {
	// ID is the trailing token of the entry's Atom id (e.g., "2310.12345v2")
	ID string

	// Title of the paper, never empty
	Title string

	// Summary is the abstract; may be empty
	Summary string

	// Authors is a comma-separated list of display names in feed order
	Authors string

	// PublishedAt is when the first version was submitted
	PublishedAt time.Time

	// UpdatedAt is when the latest version was submitted, if known
	UpdatedAt *time.Time

	// PDFURL links to the PDF rendition
	PDFURL string

	// WebURL links to the abstract page
	WebURL string

	// Categories is a comma-separated list of category terms
	Categories string

	favorite    bool
	favoritedAt *time.Time
}

// IsFavorite reports whether the paper is marked as a favorite.
func (p *Paper) IsFavorite() bool {
	return p.favorite
}

// FavoritedAt returns when the paper was marked as a favorite, or nil.
func (p *Paper) FavoritedAt() *time.Time {
	return p.favoritedAt
}

// SetFavorite marks or unmarks the paper. The timestamp is recorded only when
// the flag transitions to true and is cleared when it transitions to false.
func (p *Paper) SetFavorite(on bool, at time.Time) {
	if on == p.favorite {
		return
	}
	p.favorite = on
	if on {
		t := at
		p.favoritedAt = &t
	} else {
		p.favoritedAt = nil
	}
}

// AuthorList returns the authors as a slice.
func (p *Paper) AuthorList() []string {
	return splitList(p.Authors)
}

// CategoryList returns all categories as a slice.
func (p *Paper) CategoryList() []string {
	return splitList(p.Categories)
}

// PrimaryCategory returns the primary (first) category.
func (p *Paper) PrimaryCategory() string {
	cats := p.CategoryList()
	if len(cats) == 0 {
		return ""
	}
	return cats[0]
}

// BaseID returns the identifier without its version suffix ("2310.12345v2" -> "2310.12345").
func (p *Paper) BaseID() string {
	if i := strings.LastIndex(p.ID, "v"); i > 0 {
		if isDigits(p.ID[i+1:]) {
			return p.ID[:i]
		}
	}
	return p.ID
}

// AbstractURL returns the web URL from the feed, or the canonical abstract page.
func (p *Paper) AbstractURL() string {
	if p.WebURL != "" {
		return p.WebURL
	}
	return "https://arxiv.org/abs/" + p.ID
}

type paperJSON struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Authors     string     `json:"authors"`
	PublishedAt time.Time  `json:"published_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	PDFURL      string     `json:"pdf_url"`
	WebURL      string     `json:"web_url"`
	Categories  string     `json:"categories"`
	IsFavorite  bool       `json:"is_favorite"`
	FavoritedAt *time.Time `json:"favorited_at,omitempty"`
}

// MarshalJSON includes the favorite state, which is not exported as fields.
func (p Paper) MarshalJSON() ([]byte, error) {
	return json.Marshal(paperJSON{
		ID:          p.ID,
		Title:       p.Title,
		Summary:     p.Summary,
		Authors:     p.Authors,
		PublishedAt: p.PublishedAt,
		UpdatedAt:   p.UpdatedAt,
		PDFURL:      p.PDFURL,
		WebURL:      p.WebURL,
		Categories:  p.Categories,
		IsFavorite:  p.favorite,
		FavoritedAt: p.favoritedAt,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
