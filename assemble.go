package arxivfeed

import "strings"

// Assemble turns extracted fields into papers, preserving order. Entries
// without an identifier or a title are dropped; the number dropped is
// returned for diagnostics.
func Assemble(fields []Fields, opts ParseOptions) (papers []Paper, dropped int) {
	papers = make([]Paper, 0, len(fields))
	for _, f := range fields {
		p, ok := assemble(f, opts)
		if !ok {
			dropped++
			continue
		}
		papers = append(papers, p)
	}
	return papers, dropped
}

func assemble(f Fields, opts ParseOptions) (Paper, bool) {
	id := strings.TrimSpace(f.ID)
	title := strings.TrimSpace(f.Title)
	if id == "" || title == "" {
		return Paper{}, false
	}

	authors := strings.Join(f.Authors, ", ")
	if authors == "" {
		authors = opts.AuthorFallback
	}

	p := Paper{
		ID:          id,
		Title:       title,
		Summary:     f.Summary,
		Authors:     authors,
		PublishedAt: f.Published,
		PDFURL:      f.PDFURL,
		WebURL:      f.WebURL,
		Categories:  strings.Join(f.Categories, ", "),
	}
	if f.Updated != nil {
		t := *f.Updated
		p.UpdatedAt = &t
	}
	return p, true
}

// decodeBody runs the configured strategy over a response body. It reports
// how many entries were seen and how many could not be decoded at all.
func decodeBody(body []byte, opts ParseOptions) (fields []Fields, seen, malformed int, err error) {
	if opts.Strategy == StrategyAtom {
		fields, err = parseAtomDocument(body, opts)
		return fields, len(fields), 0, err
	}

	fragments, err := Extract(body)
	if err != nil {
		return nil, 0, 0, err
	}
	for frag := range fragments {
		seen++
		f, err := ParseFragment(frag, opts)
		if err != nil {
			malformed++
			continue
		}
		fields = append(fields, f)
	}
	return fields, seen, malformed, nil
}
