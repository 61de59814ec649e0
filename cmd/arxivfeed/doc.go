/*
arxivfeed fetches recent arXiv listings and keeps a small local cache of them.

# Usage

	arxivfeed <command> [flags]

# Commands

	fetch       Fetch the newest papers of a category
	search      Free-text search, optionally restricted to a subject
	watch       Refresh a category periodically and serve metrics
	ls          List or full-text search cached papers (alias: list)
	stats       Show cache statistics
	reindex     Rebuild the cache's full-text index
	favorite    Mark a cached paper as favorite
	unfavorite  Remove a paper from favorites
	favorites   List favorite papers
	export      Export cached papers as BibTeX or RIS
	categories  List category keys

# Categories

"latest" spans every subject area. When it comes back empty the fetch widens
to a list of popular subcategories and then to all of computer science.
Subject keys (cs, math, physics, q-bio, q-fin, stat, eess, econ) query one
area and never fall back.

	arxivfeed fetch                     # latest
	arxivfeed fetch cs -n 20            # 20 newest computer science papers
	arxivfeed fetch math --sort updated

# Searching

	arxivfeed search "graph neural networks"
	arxivfeed search -s physics "quantum error correction"

# Output

Every listing command accepts -f text|json|bibtex|ris. Pass --save to fetch,
search or watch to merge results into the cache; favorites survive merges.

	arxivfeed fetch cs --save
	arxivfeed favorite 2401.01234v1
	arxivfeed export 2401.01234v1 -f ris

# Configuration

Settings are read from $ARXIVFEED_CONFIG or ~/.config/arxivfeed/config.yaml:

	base_url: https://export.arxiv.org/api/query
	timeout: 60s
	rate_interval: 3s
	db_path: /home/me/.cache/arxivfeed/papers.db
	log_level: info
	count: 50
	sort: submitted
	parser:
	  strategy: fragment        # or atom
	  normalize_whitespace: true
	  author_fallback: Unknown
	  omit_unchanged_update: false
	refresh:
	  interval: 30m
	  metrics_addr: ":9464"

ARXIVFEED_BASE_URL, ARXIVFEED_DB, ARXIVFEED_LOG_LEVEL, ARXIVFEED_TIMEOUT and
ARXIVFEED_RATE_INTERVAL override the file.
*/
package main

const usageText = `arxivfeed - fetch and browse arXiv listings

Examples:
  arxivfeed fetch                    Latest papers across all subjects
  arxivfeed fetch cs -n 20           20 newest computer science papers
  arxivfeed search "transformer"     Free-text search
  arxivfeed watch cs --save          Refresh every 30m into the cache
  arxivfeed favorites -f bibtex      Export favorites

Run 'go doc github.com/tmc/arxivfeed/cmd/arxivfeed' for full documentation.`
