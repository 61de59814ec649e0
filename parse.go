package arxivfeed

import (
	"encoding/xml"
	"net/url"
	"strings"
	"time"
)

// UnknownAuthor is the default stand-in for an entry without authors.
const UnknownAuthor = "Unknown"

// Strategy selects how a response body is turned into entries.
type Strategy string

const (
	// StrategyFragment extracts entry fragments and decodes each one on its own,
	// so a damaged entry costs only that entry.
	StrategyFragment Strategy = "fragment"

	// StrategyAtom decodes the whole document with an Atom parser.
	StrategyAtom Strategy = "atom"
)

// ParseOptions controls field normalization.
//
// Two historical parsers disagreed on whether internal whitespace in titles
// and summaries is collapsed and on whether an empty author list becomes
// "Unknown" or stays empty; both behaviours are selectable here.
type ParseOptions struct {
	Strategy Strategy

	// NormalizeWhitespace collapses runs of whitespace in title and summary
	NormalizeWhitespace bool

	// AuthorFallback replaces an empty author list; "" keeps it empty
	AuthorFallback string

	// OmitUnchangedUpdate drops the updated timestamp when it equals published
	OmitUnchangedUpdate bool

	// Now supplies the published time for entries whose date cannot be parsed
	Now func() time.Time
}

// DefaultParseOptions returns the fragment strategy with whitespace
// normalization and the "Unknown" author fallback.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		Strategy:            StrategyFragment,
		NormalizeWhitespace: true,
		AuthorFallback:      UnknownAuthor,
		Now:                 time.Now,
	}
}

func (o ParseOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Fields holds the values extracted from one entry. Every field has already
// fallen back to its empty value if it was missing or malformed.
type Fields struct {
	ID         string
	Title      string
	Summary    string
	Authors    []string
	Published  time.Time
	Updated    *time.Time
	PDFURL     string
	WebURL     string
	Categories []string
}

// rawEntry is the strategy-independent view of an entry before normalization.
type rawEntry struct {
	ID         string
	Title      string
	Summary    string
	Authors    []string
	Published  string
	Updated    string
	Links      []Link
	Categories []string
}

// ParseFragment extracts the fields of a single entry fragment. Missing or
// malformed fields never fail the parse; only a fragment that holds no
// decodable entry element returns a *ParsingError.
func ParseFragment(fragment string, opts ParseOptions) (Fields, error) {
	d := xml.NewDecoder(strings.NewReader(fragment))
	d.Strict = false
	d.Entity = xml.HTMLEntity

	var e xmlEntry
	if err := d.Decode(&e); err != nil {
		return Fields{}, &ParsingError{Err: err}
	}

	raw := rawEntry{
		ID:        e.ID,
		Title:     e.Title,
		Summary:   e.Summary,
		Published: e.Published,
		Updated:   e.Updated,
	}
	for _, a := range e.Authors {
		raw.Authors = append(raw.Authors, a.Name)
	}
	for _, l := range e.Links {
		raw.Links = append(raw.Links, Link{Href: l.Href, Type: l.Type, Rel: l.Rel, Title: l.Title})
	}
	for _, c := range e.Categories {
		raw.Categories = append(raw.Categories, c.Term)
	}
	return raw.fields(opts), nil
}

func (r rawEntry) fields(opts ParseOptions) Fields {
	f := Fields{
		ID:      trimIdentifier(r.ID),
		Title:   cleanText(r.Title, opts.NormalizeWhitespace),
		Summary: cleanText(r.Summary, opts.NormalizeWhitespace),
	}

	for _, name := range r.Authors {
		if name = strings.TrimSpace(name); name != "" {
			f.Authors = append(f.Authors, name)
		}
	}
	for _, term := range r.Categories {
		if term = strings.TrimSpace(term); term != "" {
			f.Categories = append(f.Categories, term)
		}
	}

	if t, ok := parseTimestamp(r.Published); ok {
		f.Published = t
	} else {
		f.Published = opts.now()
	}
	if t, ok := parseTimestamp(r.Updated); ok {
		if !(opts.OmitUnchangedUpdate && t.Equal(f.Published)) {
			f.Updated = &t
		}
	}

	for _, l := range r.Links {
		href := strings.TrimSpace(l.Href)
		if href == "" {
			continue
		}
		switch ClassifyLink(l) {
		case LinkPDF:
			f.PDFURL = href
		case LinkHTML:
			f.WebURL = href
		}
	}
	return f
}

// trimIdentifier keeps the token after the final '/'
// ("http://arxiv.org/abs/2310.12345v2" -> "2310.12345v2").
func trimIdentifier(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

func cleanText(s string, collapse bool) string {
	if collapse {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.TrimSpace(s)
}

// parseTimestamp accepts RFC 3339 timestamps, including the 'Z' form the API emits.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// LinkKind is the role of an entry link.
type LinkKind int

const (
	LinkOther LinkKind = iota
	LinkPDF
	LinkHTML
)

func (k LinkKind) String() string {
	switch k {
	case LinkPDF:
		return "pdf"
	case LinkHTML:
		return "html"
	}
	return "other"
}

// Link is an entry link with the attributes used to classify it.
type Link struct {
	Href  string
	Type  string
	Rel   string
	Title string
}

// linkDetectors run in order until one recognises the link.
var linkDetectors = []func(Link) LinkKind{
	kindFromAttributes,
	kindFromAddress,
}

// ClassifyLink resolves a link's kind from its attributes, falling back to
// its address when the attributes say nothing.
func ClassifyLink(l Link) LinkKind {
	for _, detect := range linkDetectors {
		if k := detect(l); k != LinkOther {
			return k
		}
	}
	return LinkOther
}

func kindFromAttributes(l Link) LinkKind {
	typ := strings.ToLower(strings.TrimSpace(l.Type))
	switch {
	case typ == "application/pdf", strings.EqualFold(l.Title, "pdf"):
		return LinkPDF
	case typ == "text/html", strings.EqualFold(l.Rel, "alternate"):
		return LinkHTML
	}
	return LinkOther
}

func kindFromAddress(l Link) LinkKind {
	path := strings.TrimSpace(l.Href)
	if u, err := url.Parse(path); err == nil {
		path = u.Path
	}
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, ".pdf"), strings.Contains(path, "/pdf/"):
		return LinkPDF
	case strings.Contains(path, "/abs/"), strings.HasSuffix(path, ".html"), strings.HasSuffix(path, ".htm"):
		return LinkHTML
	}
	return LinkOther
}

// Atom entry structures for fragment decoding.

type xmlEntry struct {
	XMLName    xml.Name      `xml:"entry"`
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Authors    []xmlAuthor   `xml:"author"`
	Published  string        `xml:"published"`
	Updated    string        `xml:"updated"`
	Links      []xmlLink     `xml:"link"`
	Categories []xmlCategory `xml:"category"`
}

type xmlAuthor struct {
	Name string `xml:"name"`
}

type xmlLink struct {
	Href  string `xml:"href,attr"`
	Type  string `xml:"type,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
}

type xmlCategory struct {
	Term string `xml:"term,attr"`
}
