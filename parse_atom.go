package arxivfeed

import (
	"bytes"
	"unicode/utf8"

	"github.com/mmcdole/gofeed/atom"
)

// parseAtomDocument decodes a whole feed with the gofeed Atom parser. Unlike
// the fragment strategy, a document the parser rejects fails as a whole.
func parseAtomDocument(body []byte, opts ParseOptions) ([]Fields, error) {
	if !utf8.Valid(body) {
		return nil, &ParsingError{Err: errNotUTF8}
	}

	fp := &atom.Parser{}
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ParsingError{Err: err}
	}

	fields := make([]Fields, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if e == nil {
			continue
		}
		raw := rawEntry{
			ID:        e.ID,
			Title:     e.Title,
			Summary:   e.Summary,
			Published: e.Published,
			Updated:   e.Updated,
		}
		for _, p := range e.Authors {
			if p != nil {
				raw.Authors = append(raw.Authors, p.Name)
			}
		}
		for _, l := range e.Links {
			if l != nil {
				raw.Links = append(raw.Links, Link{Href: l.Href, Type: l.Type, Rel: l.Rel, Title: l.Title})
			}
		}
		for _, c := range e.Categories {
			if c != nil {
				raw.Categories = append(raw.Categories, c.Term)
			}
		}
		fields = append(fields, raw.fields(opts))
	}
	return fields, nil
}
