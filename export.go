package arxivfeed

import (
	"fmt"
	"strings"
)

// BibTeXEntry represents a BibTeX entry for a paper
type BibTeXEntry struct {
	Type   string            // @misc for preprints
	Key    string            // Citation key
	Fields map[string]string // BibTeX fields
}

// ToBibTeX converts a Paper to BibTeX format
func (p *Paper) ToBibTeX() string {
	entry := BibTeXEntry{
		Type:   "misc",
		Key:    p.BibTeXKey(),
		Fields: make(map[string]string),
	}

	if p.Title != "" {
		entry.Fields["title"] = p.Title
	}
	if authors := p.formatAuthorsBibTeX(); authors != "" {
		entry.Fields["author"] = authors
	}
	if !p.PublishedAt.IsZero() {
		entry.Fields["year"] = fmt.Sprintf("%d", p.PublishedAt.Year())
		entry.Fields["month"] = strings.ToLower(p.PublishedAt.Format("Jan"))
	}

	entry.Fields["eprint"] = p.BaseID()
	entry.Fields["archivePrefix"] = "arXiv"
	entry.Fields["primaryClass"] = p.PrimaryCategory()
	entry.Fields["url"] = p.AbstractURL()

	if p.Summary != "" {
		entry.Fields["abstract"] = p.Summary
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "@%s{%s,\n", entry.Type, entry.Key)

	fieldOrder := []string{"title", "author", "year", "month", "eprint", "archivePrefix", "primaryClass", "url", "abstract"}
	for _, field := range fieldOrder {
		if value, ok := entry.Fields[field]; ok && value != "" {
			fmt.Fprintf(&sb, "  %s = {%s},\n", field, escapeBibTeX(value))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// BibTeXKey generates a citation key: first author's last name, year and
// the start of the first title word.
func (p *Paper) BibTeXKey() string {
	key := ""
	if authors := p.AuthorList(); len(authors) > 0 && authors[0] != UnknownAuthor {
		words := strings.Fields(authors[0])
		key = strings.ToLower(strings.Trim(words[len(words)-1], ".,"))
	}

	if key != "" && !p.PublishedAt.IsZero() {
		key += fmt.Sprintf("%d", p.PublishedAt.Year())
	}

	if words := strings.Fields(p.Title); key != "" && len(words) > 0 {
		firstWord := strings.ToLower(strings.Trim(words[0], ".,!?;:"))
		key += firstWord[:min(len(firstWord), 5)]
	}

	// Fallback to ID
	if key == "" {
		key = strings.NewReplacer(".", "", "/", "").Replace(p.BaseID())
	}

	return key
}

// formatAuthorsBibTeX formats authors for BibTeX (Last, First and Last, First)
func (p *Paper) formatAuthorsBibTeX() string {
	var formatted []string
	for _, author := range p.AuthorList() {
		if author == UnknownAuthor {
			continue
		}
		words := strings.Fields(author)
		if len(words) >= 2 {
			lastName := words[len(words)-1]
			firstName := strings.Join(words[:len(words)-1], " ")
			formatted = append(formatted, lastName+", "+firstName)
		} else {
			formatted = append(formatted, author)
		}
	}
	return strings.Join(formatted, " and ")
}

var bibTeXEscaper = strings.NewReplacer(
	"\\", "\\textbackslash{}",
	"{", "\\{",
	"}", "\\}",
	"&", "\\&",
	"%", "\\%",
	"$", "\\$",
	"#", "\\#",
	"^", "\\textasciicircum{}",
	"_", "\\_",
	"~", "\\textasciitilde{}",
)

// escapeBibTeX escapes special characters in BibTeX strings
func escapeBibTeX(s string) string {
	return bibTeXEscaper.Replace(s)
}

// ToRIS converts a Paper to RIS format
func (p *Paper) ToRIS() string {
	var sb strings.Builder
	sb.WriteString("TY  - PREP\n")

	if p.Title != "" {
		fmt.Fprintf(&sb, "TI  - %s\n", p.Title)
	}

	for _, author := range p.AuthorList() {
		if author != UnknownAuthor {
			fmt.Fprintf(&sb, "AU  - %s\n", author)
		}
	}

	if !p.PublishedAt.IsZero() {
		fmt.Fprintf(&sb, "PY  - %d\n", p.PublishedAt.Year())
		fmt.Fprintf(&sb, "DA  - %s\n", p.PublishedAt.Format("2006/01/02"))
	}

	if p.Summary != "" {
		fmt.Fprintf(&sb, "AB  - %s\n", p.Summary)
	}

	fmt.Fprintf(&sb, "UR  - %s\n", p.AbstractURL())
	if p.PDFURL != "" {
		fmt.Fprintf(&sb, "L1  - %s\n", p.PDFURL)
	}
	fmt.Fprintf(&sb, "M3  - arXiv:%s\n", p.ID)

	for _, cat := range p.CategoryList() {
		fmt.Fprintf(&sb, "KW  - %s\n", cat)
	}

	sb.WriteString("ER  - \n")
	return sb.String()
}
