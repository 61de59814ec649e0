package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tmc/arxivfeed"
	"github.com/tmc/arxivfeed/cache"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	cfg    *Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		dbPath     string
	)
	a := &app{}

	root := &cobra.Command{
		Use:           "arxivfeed",
		Short:         "Fetch and browse arXiv listings",
		Long:          usageText,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.logger = newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $ARXIVFEED_CONFIG or ~/.config/arxivfeed/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "cache database path")

	root.AddCommand(
		newFetchCmd(a),
		newSearchCmd(a),
		newWatchCmd(a),
		newListCmd(a),
		newStatsCmd(a),
		newReindexCmd(a),
		newFavoriteCmd(a, true),
		newFavoriteCmd(a, false),
		newFavoritesCmd(a),
		newExportCmd(a),
		newCategoriesCmd(a),
	)
	return root
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, _ := parseLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func (a *app) newClient(opts ...arxivfeed.Option) *arxivfeed.Client {
	base := []arxivfeed.Option{
		arxivfeed.WithBaseURL(a.cfg.BaseURL),
		arxivfeed.WithRateLimit(a.cfg.RateInterval),
		arxivfeed.WithLogger(a.logger),
		arxivfeed.WithParseOptions(a.cfg.ParseOptions()),
	}
	if a.cfg.Timeout > 0 {
		base = append(base, arxivfeed.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout}))
	}
	return arxivfeed.NewClient(append(base, opts...)...)
}

func (a *app) openCache() (*cache.Cache, error) {
	c, err := cache.Open(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return c, nil
}

// fetchFlags are shared by fetch, search and watch.
type fetchFlags struct {
	count  int
	sort   string
	format string
	save   bool
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "number of results (default from config)")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort by: submitted, updated (default from config)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text, json, bibtex, ris")
	cmd.Flags().BoolVar(&f.save, "save", false, "merge results into the cache")
}

var errUseSearch = errors.New("use 'arxivfeed search <term>' for free-text queries")

func (a *app) request(cat arxivfeed.Category, f *fetchFlags) (arxivfeed.Request, error) {
	count := f.count
	if count == 0 {
		count = a.cfg.Count
	}
	sortName := f.sort
	if sortName == "" {
		sortName = a.cfg.Sort
	}
	sortBy, err := arxivfeed.ParseSortField(sortName)
	if err != nil {
		return arxivfeed.Request{}, err
	}
	return arxivfeed.Request{Category: cat, Count: count, Sort: sortBy}, nil
}

func (a *app) fetchAndPrint(ctx context.Context, req arxivfeed.Request, f *fetchFlags) error {
	client := a.newClient()
	papers, diag, err := client.Fetch(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", req.Category, err)
	}
	a.logger.Info("fetched",
		"category", string(req.Category),
		"records", len(papers),
		"attempts", len(diag.Attempts),
		"tier", diag.Tier.String(),
		"dropped", diag.Dropped)

	if f.save {
		if err := a.save(ctx, papers); err != nil {
			return err
		}
	}
	return render(a.out, f.format, papers)
}

func (a *app) save(ctx context.Context, papers []arxivfeed.Paper) error {
	c, err := a.openCache()
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Merge(ctx, papers)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	a.logger.Info("saved", "inserted", stats.Inserted, "updated", stats.Updated, "db", a.cfg.DBPath)
	return nil
}

func newFetchCmd(a *app) *cobra.Command {
	var f fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch [category]",
		Short: "Fetch the newest papers of a category (default: latest)",
		Example: `  arxivfeed fetch                   # latest across all subjects
  arxivfeed fetch cs -n 20          # 20 newest computer science papers
  arxivfeed fetch math --sort updated -f json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := arxivfeed.CategoryLatest
			if len(args) == 1 {
				c, err := arxivfeed.ParseCategory(args[0])
				if err != nil {
					return err
				}
				if c == arxivfeed.CategorySearch {
					return errUseSearch
				}
				cat = c
			}
			req, err := a.request(cat, &f)
			if err != nil {
				return err
			}
			return a.fetchAndPrint(cmd.Context(), req, &f)
		},
	}
	f.register(cmd)
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		f       fetchFlags
		subject string
	)
	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search titles, abstracts and authors",
		Example: `  arxivfeed search "diffusion models"
  arxivfeed search -s physics "quantum error correction"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := a.request(arxivfeed.CategorySearch, &f)
			if err != nil {
				return err
			}
			req.Term = strings.Join(args, " ")
			if subject != "" {
				req.Subject = arxivfeed.Category(subject)
			}
			return a.fetchAndPrint(cmd.Context(), req, &f)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "restrict to a subject area (cs, math, physics, ...)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		limit  int
		format string
		query  string
	)
	cmd := &cobra.Command{
		Use:     "ls [category-term]",
		Aliases: []string{"list"},
		Short:   "List cached papers",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			var category string
			if len(args) == 1 {
				category = args[0]
			}
			var papers []arxivfeed.Paper
			if query != "" {
				papers, err = c.Search(cmd.Context(), query, category, limit)
			} else {
				papers, err = c.List(cmd.Context(), category, limit)
			}
			if err != nil {
				return err
			}
			return render(a.out, format, papers)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of papers")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, bibtex, ris")
	cmd.Flags().StringVarP(&query, "query", "q", "", "full-text filter on title, abstract and authors")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cats, err := c.Categories(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Database:  %s\n", a.cfg.DBPath)
			fmt.Fprintf(a.out, "Papers:    %s\n", humanize.Comma(stats.TotalPapers))
			fmt.Fprintf(a.out, "Favorites: %s\n", humanize.Comma(stats.Favorites))
			if len(cats) > 0 {
				fmt.Fprintln(a.out, "Top categories:")
				for _, cc := range cats[:max(0, min(top, len(cats)))] {
					fmt.Fprintf(a.out, "  %-16s %s\n", cc.Name, humanize.Comma(int64(cc.Count)))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of categories to show")
	return cmd
}

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the cache's full-text index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.RebuildIndex(cmd.Context()); err != nil {
				return fmt.Errorf("reindex: %w", err)
			}
			fmt.Fprintln(a.out, "Done.")
			return nil
		},
	}
}

func newFavoriteCmd(a *app, on bool) *cobra.Command {
	use, short := "favorite <id>", "Mark a cached paper as favorite"
	if !on {
		use, short = "unfavorite <id>", "Remove a paper from favorites"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			p, err := c.SetFavorite(cmd.Context(), args[0], on)
			if err != nil {
				return err
			}
			if p.IsFavorite() {
				fmt.Fprintf(a.out, "%s favorited %s\n", p.ID, p.FavoritedAt().Local().Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintf(a.out, "%s removed from favorites\n", p.ID)
			}
			return nil
		},
	}
}

func newFavoritesCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "List favorite papers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			papers, err := c.Favorites(cmd.Context())
			if err != nil {
				return err
			}
			return render(a.out, format, papers)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, bibtex, ris")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export <id>...",
		Short: "Export cached papers as BibTeX or RIS",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			defer c.Close()

			var papers []arxivfeed.Paper
			for _, id := range args {
				p, err := c.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				papers = append(papers, *p)
			}
			return render(a.out, format, papers)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "bibtex", "output format: bibtex, ris")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List category keys accepted by fetch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, arxivfeed.CategoryLatest)
			for _, c := range arxivfeed.Subjects {
				fmt.Fprintln(a.out, c)
			}
			return nil
		},
	}
}
