package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/catsite/internal/config"
	"github.com/roach88/catsite/internal/engine"
	"github.com/roach88/catsite/internal/store"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Config string
	Driver string
	DSN    string
	Page   string
	Key    string
	Out    string
	Jobs   int
	Watch  bool
}

// PageResult is the rendering of one page file.
type PageResult struct {
	Page      string `json:"page"`
	RequestID string `json:"request_id"`
	File      string `json:"file,omitempty"`   // set when written under --out
	Output    string `json:"output,omitempty"` // set otherwise
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <page>...",
		Short: "Render page files against a database",
		Long: `Render page files: expand their shortcodes and interpolate the rows
read from the database.

Each page is rendered by its own engine, so variables, macros and the
where condition never leak between pages. Pages render concurrently,
--jobs at a time. Without --out the renderings are printed in argument
order; with --out each is written to a file of the same name in that
directory.

--page and --key set the _page and _key options the where shortcodes
read. With --watch the command keeps running and re-renders a page
whenever its file changes, until interrupted.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "site.cue", "site configuration (.cue file or directory)")
	cmd.Flags().StringVar(&opts.Driver, "driver", "sqlite3", "database driver (sqlite3|sqlite|mysql|postgres)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name, a file path for SQLite (required)")
	cmd.Flags().StringVar(&opts.Page, "page", "", "_page option (default: from the configuration)")
	cmd.Flags().StringVar(&opts.Key, "key", "", "_key option, without its _ prefix (default: from the configuration)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "directory to write renderings to (default: stdout)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "pages rendered at a time")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-render pages when their files change")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}

func runRender(opts *RenderOptions, pages []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()
	slog.SetDefault(logger)

	site, err := LoadSite(opts.Config, renderOptions(opts))
	if err != nil {
		return loadFailure(formatter, err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	logger.Debug("opening database", "driver", opts.Driver)
	st, err := store.Open(ctx, store.Config{Driver: opts.Driver, DSN: opts.DSN})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStoreOpen, err.Error(), nil)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.Out != "" {
		if err := os.MkdirAll(opts.Out, 0o755); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
	}

	r := &renderer{site: site, store: st, log: logger, out: opts.Out}

	// The watcher is armed before the first rendering so no change is missed.
	var watcher *fsnotify.Watcher
	if opts.Watch {
		watcher, err = watchPages(pages)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("watching pages: %v", err), nil)
		}
		defer watcher.Close()
	}

	results, err := r.renderAll(ctx, pages, opts.Jobs)
	if err != nil {
		return renderFailure(formatter, err)
	}
	if err := outputRenderResults(formatter, results); err != nil {
		return err
	}
	if watcher == nil {
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("watching pages", "count", len(pages))
	return r.watch(ctx, watcher, pages, formatter)
}

// renderOptions returns the site options set by flags.
func renderOptions(opts *RenderOptions) map[string]string {
	o := make(map[string]string)
	if opts.Page != "" {
		o["_page"] = opts.Page
	}
	if opts.Key != "" {
		o["_key"] = "_" + url.PathEscape(opts.Key)
	}
	return o
}

// renderer renders page files of one site.
type renderer struct {
	site  *config.Site
	store store.Store
	log   *slog.Logger
	out   string
}

// pageError is a page that could not be read or written.
type pageError struct {
	code string
	page string
	err  error
}

func (e *pageError) Error() string { return fmt.Sprintf("%s: %v", e.page, e.err) }

func (e *pageError) Unwrap() error { return e.err }

// renderAll renders pages with at most jobs in flight. Results keep the
// order of pages.
func (r *renderer) renderAll(ctx context.Context, pages []string, jobs int) ([]PageResult, error) {
	if jobs < 1 {
		jobs = 1
	}
	results := make([]PageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, page := range pages {
		g.Go(func() error {
			res, err := r.renderPage(gctx, page)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// renderPage renders one page file with a fresh engine.
func (r *renderer) renderPage(ctx context.Context, page string) (PageResult, error) {
	content, err := os.ReadFile(page)
	if err != nil {
		return PageResult{}, &pageError{code: ErrCodeReadFailed, page: page, err: err}
	}

	e := engine.New(r.site, r.store, engine.WithLogger(r.log))
	out := e.Render(ctx, string(content))
	r.log.Debug("page rendered", "page", page, "request", e.ID(), "bytes", len(out))

	res := PageResult{Page: page, RequestID: e.ID()}
	if r.out == "" {
		res.Output = out
		return res, nil
	}

	res.File = filepath.Join(r.out, filepath.Base(page))
	if samePath(res.File, page) {
		return PageResult{}, &pageError{code: ErrCodeWriteFailed, page: page, err: errors.New("output would overwrite the page")}
	}
	if err := os.WriteFile(res.File, []byte(out), 0o644); err != nil {
		return PageResult{}, &pageError{code: ErrCodeWriteFailed, page: page, err: err}
	}
	return res, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// watchPages watches the directories of pages. Editors often replace a
// file instead of writing it, which only the directory sees.
func watchPages(pages []string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, p := range pages {
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

// watch re-renders a page each time its file is written or created,
// until ctx is done. Failed renderings are logged and watching goes on.
func (r *renderer) watch(ctx context.Context, w *fsnotify.Watcher, pages []string, formatter *OutputFormatter) error {
	byPath := make(map[string]string, len(pages))
	for _, p := range pages {
		byPath[filepath.Clean(p)] = p
	}

	for {
		select {
		case <-ctx.Done():
			r.log.Info("watch stopped")
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error", "error", err)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			page, watched := byPath[filepath.Clean(ev.Name)]
			if !watched || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.log.Debug("page changed", "page", page, "op", ev.Op.String())
			res, err := r.renderPage(ctx, page)
			if err != nil {
				r.log.Warn("re-render failed", "page", page, "error", err)
				continue
			}
			if err := outputRenderResults(formatter, []PageResult{res}); err != nil {
				return err
			}
		}
	}
}

// renderFailure reports a failed page as a command error.
func renderFailure(formatter *OutputFormatter, err error) error {
	var pe *pageError
	if errors.As(err, &pe) {
		return formatter.fail(ExitCommandError, pe.code, pe.Error(), nil)
	}
	return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// outputRenderResults prints renderings, or one line per written file.
func outputRenderResults(formatter *OutputFormatter, results []PageResult) error {
	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: results}
		if len(results) == 1 {
			resp.RequestID = results[0].RequestID
		}
		return json.NewEncoder(formatter.Writer).Encode(resp)
	}

	for _, res := range results {
		if res.File == "" {
			fmt.Fprint(formatter.Writer, res.Output)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✓ %s → %s\n", res.Page, res.File)
		formatter.VerboseLog("  request %s", res.RequestID)
	}
	return nil
}
