package arxivfeed

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultBaseURL is the arXiv Atom API endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// MaxCount is the largest page the API serves in one call.
const MaxCount = 2000

const sortDescending = "descending"

// Request describes one logical fetch. It carries every setting the fetch
// depends on; nothing is read from shared state.
type Request struct {
	// Category selects the listing
	Category Category

	// Count bounds the number of results (1..MaxCount)
	Count int

	// Term is the free-text query; required for CategorySearch only
	Term string

	// Subject optionally narrows a search to one subject area
	Subject Category

	// Sort defaults to SortSubmitted
	Sort SortField
}

// Tier identifies one query attempt within a fetch.
type Tier int

const (
	TierPrimary Tier = iota + 1
	TierSecondary
	TierTertiary
)

func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	}
	return "tier" + strconv.Itoa(int(t))
}

// Query is a fully-formed parameter set for one API call.
type Query struct {
	Tier Tier

	// Filter is the search_query expression, already in transport encoding
	Filter string

	Start      int
	MaxResults int
	SortBy     SortField
	SortOrder  string
}

// Encode renders the query string. Filter is written verbatim so the
// "+OR+" / "+AND+" operator tokens reach the API unchanged.
func (q Query) Encode() string {
	var sb strings.Builder
	sb.WriteString("search_query=")
	sb.WriteString(q.Filter)
	sb.WriteString("&start=")
	sb.WriteString(strconv.Itoa(q.Start))
	sb.WriteString("&max_results=")
	sb.WriteString(strconv.Itoa(q.MaxResults))
	sb.WriteString("&sortBy=")
	sb.WriteString(string(q.SortBy))
	sb.WriteString("&sortOrder=")
	sb.WriteString(q.SortOrder)
	return sb.String()
}

// URL joins the query onto base.
func (q Query) URL(base string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// BuildQuery returns the ordered query plan for req. The latest listing
// yields three tiers; every other category yields exactly one.
func BuildQuery(req Request) ([]Query, error) {
	if req.Count < 1 || req.Count > MaxCount {
		return nil, invalidRequest("count %d out of range 1..%d", req.Count, MaxCount)
	}
	sortBy, err := ParseSortField(string(req.Sort))
	if err != nil {
		return nil, err
	}
	if req.Subject != "" && req.Category != CategorySearch {
		return nil, invalidRequest("subject %q only applies to search", req.Subject)
	}

	newQuery := func(tier Tier, filter string) Query {
		return Query{
			Tier:       tier,
			Filter:     filter,
			Start:      0,
			MaxResults: req.Count,
			SortBy:     sortBy,
			SortOrder:  sortDescending,
		}
	}

	var plan []Query
	switch {
	case req.Category == CategoryLatest:
		var all []string
		for _, s := range Subjects {
			all = append(all, subjectPrefixes[s]...)
		}
		plan = []Query{
			newQuery(TierPrimary, subjectFilter(all)),
			newQuery(TierSecondary, subjectFilter(latestSecondaryPrefixes)),
			newQuery(TierTertiary, subjectFilter(latestTertiaryPrefixes)),
		}
	case req.Category.IsSubject():
		plan = []Query{newQuery(TierPrimary, subjectFilter(subjectPrefixes[req.Category]))}
	case req.Category == CategorySearch:
		filter, err := searchFilter(req.Term, req.Subject)
		if err != nil {
			return nil, err
		}
		plan = []Query{newQuery(TierPrimary, filter)}
	default:
		return nil, invalidRequest("unknown category %q", req.Category)
	}

	for _, q := range plan {
		if _, err := url.ParseQuery(q.Encode()); err != nil {
			return nil, invalidRequest("malformed query: %v", err)
		}
	}
	return plan, nil
}

// subjectFilter ORs cat: terms together. The API only recognises the
// operator when the surrounding spaces arrive as literal '+'; "%20OR%20"
// silently matches nothing.
func subjectFilter(prefixes []string) string {
	terms := make([]string, len(prefixes))
	for i, p := range prefixes {
		terms[i] = "cat:" + p
	}
	return strings.Join(terms, "+OR+")
}

func searchFilter(term string, subject Category) (string, error) {
	if !utf8.ValidString(term) {
		return "", invalidRequest("search term is not valid UTF-8")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return "", invalidRequest("search requires a term")
	}
	filter := "all:" + EncodeTerm(term)
	if subject == "" {
		return filter, nil
	}
	if !subject.IsSubject() {
		return "", invalidRequest("unknown subject %q", subject)
	}
	return filter + "+AND+%28" + subjectFilter(subjectPrefixes[subject]) + "%29", nil
}

// EncodeTerm percent-encodes free text for the search_query parameter.
// Spaces become %20 so they cannot be mistaken for operator separators.
func EncodeTerm(term string) string {
	// QueryEscape turns a literal '+' into %2B, so every '+' left is a space.
	return strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
}

// DecodeTerm reverses EncodeTerm.
func DecodeTerm(encoded string) (string, error) {
	return url.QueryUnescape(encoded)
}
