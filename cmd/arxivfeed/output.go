package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/tmc/arxivfeed"
)

var (
	idColor    = color.New(color.FgCyan)
	titleColor = color.New(color.Bold)
	metaColor  = color.New(color.Faint)
	starColor  = color.New(color.FgYellow)
)

// render writes papers in the named format.
func render(w io.Writer, format string, papers []arxivfeed.Paper) error {
	switch strings.ToLower(format) {
	case "", "text":
		return renderText(w, papers)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if papers == nil {
			papers = []arxivfeed.Paper{}
		}
		return enc.Encode(papers)
	case "bibtex", "bib":
		for i := range papers {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprint(w, papers[i].ToBibTeX())
		}
		return nil
	case "ris":
		for i := range papers {
			fmt.Fprint(w, papers[i].ToRIS())
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q: must be text, json, bibtex or ris", format)
	}
}

func renderText(w io.Writer, papers []arxivfeed.Paper) error {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No papers.")
		return nil
	}
	for _, p := range papers {
		star := ""
		if p.IsFavorite() {
			star = starColor.Sprint(" *")
		}
		fmt.Fprintf(w, "%s  %s%s\n", idColor.Sprint(p.ID), titleColor.Sprint(p.Title), star)

		meta := []string{p.Authors}
		if p.Categories != "" {
			meta = append(meta, p.Categories)
		}
		if !p.PublishedAt.IsZero() {
			meta = append(meta, humanize.Time(p.PublishedAt))
		}
		fmt.Fprintf(w, "    %s\n", metaColor.Sprint(strings.Join(meta, " | ")))
		if p.PDFURL != "" {
			fmt.Fprintf(w, "    %s\n", p.PDFURL)
		}
	}
	return nil
}
