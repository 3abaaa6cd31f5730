package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pders01/newsagent/internal/debuglog"
	"github.com/pders01/newsagent/internal/export"
	"github.com/pders01/newsagent/internal/match"
	"github.com/pders01/newsagent/internal/opener"
	"github.com/pders01/newsagent/internal/pipeline"
	"github.com/pders01/newsagent/internal/query"
	"github.com/pders01/newsagent/internal/selection"
	"github.com/pders01/newsagent/internal/tui"
)

// searchOptions holds the flags shared by search and browse.
type searchOptions struct {
	parent     string
	children   []string
	mode       string
	since      string
	until      string
	limit      int
	snapLimit  bool
	groups     []string
	feeds      []string
	text       string
	withSource bool
	noCache    bool
	refresh    bool

	csvPath     string
	mdPath      string
	jsonlPath   string
	open        string
	digest      bool
	reasons     bool
	interactive bool
}

var searchOpts searchOptions

func (o *searchOptions) bindQuery(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.parent, "query", "q", "", "Parent keyword; must match (\"quoted\" or =prefixed means exact)")
	f.StringArrayVarP(&o.children, "kw", "k", nil, "Child keyword (repeatable, up to 5)")
	f.StringVar(&o.mode, "mode", "", "How child keywords combine: any or all (default from config)")
	f.StringVar(&o.since, "since", "", "Lower time bound: 30m, 24h, 7d, 2w or YYYY-MM-DD (default from config)")
	f.StringVar(&o.until, "until", "", "Upper time bound, same grammar as --since")
	f.IntVarP(&o.limit, "limit", "n", 0, "Maximum results, clamped to 1-50 (default from config)")
	f.BoolVar(&o.snapLimit, "snap-limit", true, "Round the limit up to the next multiple of 5")
	f.StringArrayVarP(&o.groups, "group", "g", nil, "Feed group to search (repeatable)")
	f.StringArrayVar(&o.feeds, "feed", nil, "Extra feed URL to search (repeatable)")
	f.StringVar(&o.text, "text", "", "Free-text filter applied on top of the keywords")
	f.BoolVar(&o.withSource, "with-source", false, "Also match keywords against the source name")
	f.BoolVar(&o.noCache, "no-cache", false, "Do not use the fetch cache")
	f.BoolVar(&o.refresh, "refresh", false, "Ignore cached documents and fetch again")
}

func (o *searchOptions) bindOutput(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.csvPath, "csv", "", "Write results as CSV to this path")
	f.StringVar(&o.mdPath, "md", "", "Write results as a Markdown table to this path")
	f.StringVar(&o.jsonlPath, "jsonl", "", "Write results as JSON lines to this path")
	f.StringVar(&o.open, "open", "", "Open results in the browser, e.g. 1,3-5")
	f.BoolVar(&o.digest, "digest", false, "Print a per-source digest instead of the table")
	f.BoolVar(&o.reasons, "reasons", false, "Show why each result matched")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "Browse the results interactively")
}

var searchCmd = &cobra.Command{
	Use:   "search [parent] [child...]",
	Short: "Search feeds for a parent keyword and optional child keywords",
	Example: `  newsagent search -q AI -k chips -k export --mode all --since 3d
  newsagent search AI chips --group Technology --csv ai.csv
  newsagent search -q '"Tesla"' --since 2025-10-01 --until 2025-10-07 --reasons`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, &searchOpts, args)
	},
}

func init() {
	searchOpts.bindQuery(searchCmd)
	searchOpts.bindOutput(searchCmd)
}

// snapLimit rounds n up to the next multiple of 5, keeping 1-4 as given and
// capping at the pipeline maximum.
func snapLimit(n int) int {
	if n < pipeline.MinLimit {
		return pipeline.MinLimit
	}
	if n < 5 {
		return n
	}
	snapped := ((n + 4) / 5) * 5
	if snapped > pipeline.MaxLimit {
		return pipeline.MaxLimit
	}
	return snapped
}

// buildRequest validates everything that can be checked before any feed is
// contacted.
func (o *searchOptions) buildRequest(cmd *cobra.Command, e *env, args []string, now time.Time) (pipeline.Request, error) {
	modeName := o.mode
	if modeName == "" {
		modeName = e.cfg.Search.Mode
	}
	mode, err := query.ParseMode(modeName)
	if err != nil {
		return pipeline.Request{}, err
	}

	var q query.Query
	if strings.TrimSpace(o.parent) != "" {
		children := append(append([]string(nil), o.children...), args...)
		q = e.parser.Build(o.parent, children, mode)
	} else {
		terms := append(append([]string(nil), args...), o.children...)
		q = e.parser.Parse(terms, mode)
	}
	if q.Parent == nil {
		return pipeline.Request{}, errors.New("a parent keyword is required (--query or first argument)")
	}
	q.Text = strings.TrimSpace(o.text)

	since := o.since
	if !cmd.Flags().Changed("since") {
		since = e.cfg.Search.DefaultSince
	}
	window, err := query.ParseWindow(since, o.until, now)
	if err != nil {
		return pipeline.Request{}, err
	}

	limit := e.cfg.Search.DefaultLimit
	if cmd.Flags().Changed("limit") {
		limit = o.limit
	}
	if o.snapLimit {
		limit = snapLimit(limit)
	}
	limit = pipeline.ClampLimit(limit)

	fields := e.fields
	if o.withSource {
		fields |= match.FieldSource
	}

	sources, err := e.sources(o.groups, o.feeds)
	if err != nil {
		return pipeline.Request{}, err
	}
	if len(sources) == 0 {
		return pipeline.Request{}, errors.New("no feeds selected")
	}

	return pipeline.Request{
		Sources: sources,
		Window:  window,
		Query:   q,
		Limit:   limit,
		Fields:  fields,
	}, nil
}

func runSearch(cmd *cobra.Command, o *searchOptions, args []string) error {
	e, err := newEnv(envOptions{noCache: o.noCache, refresh: o.refresh})
	if err != nil {
		return err
	}
	defer e.Close()

	req, err := o.buildRequest(cmd, e, args, time.Now())
	if err != nil {
		return err
	}

	if o.interactive {
		return runBrowser(e, req)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := e.pipeline.Search(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	for _, w := range res.Warnings {
		fmt.Fprintln(errOut, tui.StatusWarnStyle.Render(fmt.Sprintf("warning: %s: %s", w.Source, w.Message)))
	}

	if err := o.render(out, res); err != nil {
		return err
	}

	for _, x := range []struct {
		path   string
		format export.Format
	}{
		{o.csvPath, export.FormatCSV},
		{o.mdPath, export.FormatMarkdown},
		{o.jsonlPath, export.FormatJSONL},
	} {
		if x.path == "" {
			continue
		}
		err := export.WriteFile(x.path, func(w io.Writer) error {
			return export.Write(w, x.format, res.Items)
		})
		if err != nil {
			fmt.Fprintln(errOut, tui.StatusWarnStyle.Render("warning: "+err.Error()))
			continue
		}
		fmt.Fprintln(errOut, tui.StatusSuccessStyle.Render(tui.MsgExported(x.path, len(res.Items))))
	}

	if o.open != "" {
		if err := openSelection(e, res, o.open); err != nil {
			fmt.Fprintln(errOut, tui.StatusWarnStyle.Render("warning: "+err.Error()))
		}
	}

	fmt.Fprintln(errOut, tui.StatusInfoStyle.Render(fmt.Sprintf("%s in %s",
		tui.MsgSearchSummary(len(res.Items), res.Stats.Sources, res.Stats.Failed),
		res.Stats.Elapsed.Round(time.Millisecond))))
	return nil
}

func (o *searchOptions) render(out io.Writer, res *pipeline.Result) error {
	if len(res.Items) == 0 {
		fmt.Fprintln(out, tui.MsgNoResults)
		return nil
	}

	if o.digest {
		md := export.Digest("News digest", res.FeedItems(), export.DigestPerSource)
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return err
		}
		rendered, err := r.Render(md)
		if err != nil {
			fmt.Fprintln(out, md)
			return nil
		}
		fmt.Fprint(out, rendered)
		return nil
	}

	fmt.Fprintln(out, tui.RenderTable(res.Items, tui.TableOptions{ShowReasons: o.reasons}))
	return nil
}

func openSelection(e *env, res *pipeline.Result, expr string) error {
	var links []string
	for _, i := range selection.Parse(expr, len(res.Items)) {
		if link := res.Items[i-1].Link; link != "" {
			links = append(links, link)
		}
	}
	if len(links) == 0 {
		return fmt.Errorf("nothing to open for %q", expr)
	}
	debuglog.Infof("opening %d links", len(links))
	return opener.New(e.cfg).OpenAll(links)
}

// runBrowser runs req inside the interactive browser. Reloads repeat the
// same request.
func runBrowser(e *env, req pipeline.Request) error {
	load := func(ctx context.Context) (*pipeline.Result, error) {
		return e.pipeline.Search(ctx, req)
	}
	app := tui.NewApp(e.cfg, load, opener.New(e.cfg))
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
