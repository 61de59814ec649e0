// Package arxivfeed is a client for the arXiv Atom API that turns listing and
// search queries into typed paper records.
//
// This package implements:
//   - A query builder for the "latest" listing, eight subject areas and free-text search
//   - A markup extractor that splits a feed into per-entry fragments
//   - A field parser and record assembler with per-field fallbacks
//   - A fetch orchestrator that falls back to broader queries when the
//     "latest" listing comes back empty
//   - A scheduled refresher for periodic re-fetching
//
// Only empty-but-successful responses trigger a fallback. Transport failures
// (non-2xx statuses, connection errors, timeouts, cancellation) are returned to
// the caller immediately and no further tiers are attempted.
//
// Basic usage:
//
//	client := arxivfeed.NewClient()
//
//	papers, diag, err := client.Fetch(ctx, arxivfeed.Request{
//		Category: arxivfeed.CategoryLatest,
//		Count:    50,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Printf("%d papers after %d attempts (%d dropped)", len(papers), len(diag.Attempts), diag.Dropped)
//
// Records are created fresh on every fetch. Merging them into storage is left
// to the caller; see the cache subpackage for one such collaborator.
package arxivfeed
