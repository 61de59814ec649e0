package arxivfeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Diagnostics describes how a fetch went.
type Diagnostics struct {
	// RequestID correlates log lines of one fetch
	RequestID string

	Category Category

	// Attempts lists every request issued, in order
	Attempts []Attempt

	// Tier is the tier whose result was returned; zero when the fetch failed
	Tier Tier

	// Dropped counts entries discarded across all attempts, Malformed included
	Dropped int

	// Malformed counts entries that could not be decoded at all
	Malformed int
}

// Attempt records one request within a fetch.
type Attempt struct {
	Tier       Tier
	URL        string
	StatusCode int
	Entries    int
	Records    int
	Dropped    int
	Malformed  int
	Duration   time.Duration
	Err        error
}

// Fallback reports whether a tier beyond the primary was attempted.
func (d *Diagnostics) Fallback() bool {
	return len(d.Attempts) > 1
}

// Fetch runs the query plan for req and returns the first non-empty result.
//
// Tiers run one after another and only the latest listing has more than one.
// A tier is attempted only after the previous one succeeded with zero
// records. Any transport or parsing failure ends the fetch at once with no
// records; the returned diagnostics still describe the attempts made.
func (c *Client) Fetch(ctx context.Context, req Request) ([]Paper, *Diagnostics, error) {
	diag := &Diagnostics{
		RequestID: uuid.NewString(),
		Category:  req.Category,
	}
	log := c.logger.With("request_id", diag.RequestID, "category", string(req.Category))

	plan, err := BuildQuery(req)
	if err != nil {
		log.Debug("rejected request", "error", err)
		return nil, diag, err
	}

	var papers []Paper
	for i, q := range plan {
		if i > 0 {
			log.Info("empty result, falling back", "tier", q.Tier.String())
			c.metrics.observeFallback(req.Category, q.Tier)
		}
		papers, err = c.attempt(ctx, req.Category, q, diag, log)
		if err != nil {
			diag.Tier = 0
			return nil, diag, err
		}
		diag.Tier = q.Tier
		if len(papers) > 0 {
			break
		}
	}

	log.Debug("fetch complete",
		"tier", diag.Tier.String(),
		"records", len(papers),
		"attempts", len(diag.Attempts),
		"dropped", diag.Dropped)
	return papers, diag, nil
}

// FetchCategory fetches count papers of a category with default sorting.
func (c *Client) FetchCategory(ctx context.Context, cat Category, count int) ([]Paper, *Diagnostics, error) {
	return c.Fetch(ctx, Request{Category: cat, Count: count})
}

func (c *Client) attempt(ctx context.Context, cat Category, q Query, diag *Diagnostics, log *slog.Logger) ([]Paper, error) {
	reqURL := q.URL(c.baseURL)
	start := time.Now()
	a := Attempt{Tier: q.Tier, URL: reqURL}

	fail := func(outcome string, err error) ([]Paper, error) {
		a.Duration = time.Since(start)
		a.Err = err
		diag.Attempts = append(diag.Attempts, a)
		c.metrics.observeAttempt(cat, q.Tier, outcome, a.Duration)
		log.Warn("request failed", "tier", q.Tier.String(), "url", reqURL, "status", a.StatusCode, "error", err)
		return nil, err
	}

	body, status, err := c.get(ctx, reqURL)
	a.StatusCode = status
	if err != nil {
		if status != 0 {
			return fail(outcomeHTTPError, err)
		}
		return fail(outcomeNetworkError, err)
	}

	fields, seen, malformed, err := decodeBody(body, c.parse)
	if err != nil {
		return fail(outcomeParseError, err)
	}
	papers, dropped := Assemble(fields, c.parse)

	a.Duration = time.Since(start)
	a.Entries = seen
	a.Records = len(papers)
	a.Malformed = malformed
	a.Dropped = dropped + malformed
	diag.Attempts = append(diag.Attempts, a)
	diag.Dropped += a.Dropped
	diag.Malformed += malformed

	outcome := outcomeRecords
	if len(papers) == 0 {
		outcome = outcomeEmpty
	}
	c.metrics.observeAttempt(cat, q.Tier, outcome, a.Duration)
	c.metrics.observeAssembly(cat, len(papers), a.Dropped)

	log.Debug("attempt complete",
		"tier", q.Tier.String(),
		"url", reqURL,
		"entries", seen,
		"records", len(papers),
		"dropped", a.Dropped,
		"duration", a.Duration)
	return papers, nil
}

// Result is the outcome of one request in a FetchAll batch.
type Result struct {
	Request     Request
	Papers      []Paper
	Diagnostics *Diagnostics
	Err         error
}

// FetchAll runs independent requests concurrently, bounded by the client's
// concurrency. A failure in one request does not affect the others; results
// are returned in request order.
func (c *Client) FetchAll(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			papers, diag, err := c.Fetch(ctx, req)
			results[i] = Result{
				Request:     req,
				Papers:      papers,
				Diagnostics: diag,
				Err:         err,
			}
			return nil
		})
	}
	g.Wait()
	return results
}
