package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"github.com/roach88/catsite/internal/config"
	"github.com/roach88/catsite/internal/interp"
	"github.com/roach88/catsite/internal/ir"
	"github.com/roach88/catsite/internal/macro"
	"github.com/roach88/catsite/internal/mask"
	"github.com/roach88/catsite/internal/pipeline"
	"github.com/roach88/catsite/internal/queryir"
	"github.com/roach88/catsite/internal/querysql"
	"github.com/roach88/catsite/internal/shortcode"
	"github.com/roach88/catsite/internal/store"
)

// Shortcode names, before the site prefix is applied.
const (
	CodeMacro        = "macro"
	CodeTableMacro   = "tablemacro"
	CodeExpand       = "expand"
	CodeVars         = "vars"
	CodeFormat       = "format"
	CodeUnspace      = "unspace"
	CodeTextMap      = "textmap"
	CodeRemap        = "remap"
	CodeAlphabet     = "alphabet"
	CodeFromTable    = "from_table"
	CodeTotals       = "totals"
	CodeLoop         = "loop"
	CodeFromBefore   = "from_before"
	CodeWhereID      = "where_id"
	CodeWhereLetter1 = "where_letter1"
	CodeWhereMatch   = "where_match"
	CodeWhereKey     = "where_key"
	CodePaged        = "paged"
)

// LangVar holds the language path segment ("/de"), empty when the
// language is not part of page paths.
const LangVar = "/lang"

// Engine renders the pages of one request.
//
// An Engine is not safe for concurrent use: handlers mutate its namespace
// and condition as they run, in page order.
type Engine struct {
	id     string
	log    *slog.Logger
	site   *config.Site
	schema *queryir.Schema
	store  store.Store

	dialect  querysql.Dialect
	vars     ir.Vars
	maps     pipeline.TextMaps
	macros   *macro.Registry
	compiler *pipeline.Compiler
	machine  *pipeline.Machine
	interp   *interp.Interpolator

	codes     *shortcode.Registry
	protector *shortcode.Protector
	names     map[string]string

	// where is the active condition; nil matches nothing.
	where querysql.Condition

	// results is the last result set, read by loop, from_before and
	// where_match.
	results    interp.Batch
	hasResults bool

	idGen IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The engine adds its request id to every
// record. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithIDGenerator sets the request id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithDialect sets the SQL dialect used when the engine has no store.
func WithDialect(d querysql.Dialect) Option {
	return func(e *Engine) {
		e.dialect = d
	}
}

// New creates an engine for one request over site. st may be nil, in
// which case every query reads as an empty result set.
//
// The engine starts with the where_id condition at its defaults: the
// primary key equal to the "_page" option, else 1.
func New(site *config.Site, st store.Store, opts ...Option) *Engine {
	e := &Engine{
		site:    site,
		schema:  site.Schema(),
		store:   st,
		dialect: querysql.SQLite{},
		vars:    ir.Vars{},
		maps:    pipeline.TextMaps{},
		macros:  macro.NewRegistry(),
		codes:   shortcode.NewRegistry(),
		names:   make(map[string]string),
		idGen:   UUIDv7Generator{},
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if st != nil {
		e.dialect = st.Dialect()
	}
	e.id = e.idGen.Generate()
	e.log = e.log.With("request", e.id)

	e.compiler = pipeline.NewCompiler(mask.NewCache())
	e.machine = pipeline.NewMachine(e.vars, e.maps, pipeline.NewFormatter(site.DocumentRoot))
	e.interp = interp.New(e.compiler, e.machine)

	e.vars.SetString(LangVar, site.LangPath())
	e.registerCodes()
	e.applyWhere(e.whereID(context.Background(), shortcode.Attrs{}, ""))
	return e
}

// ID is the request id.
func (e *Engine) ID() string { return e.id }

// Vars is the variable namespace.
func (e *Engine) Vars() ir.Vars { return e.vars }

// Where is the active condition, nil when it matches nothing.
func (e *Engine) Where() querysql.Condition { return e.where }

// Results is the last result set.
func (e *Engine) Results() (interp.Batch, bool) { return e.results, e.hasResults }

// Tag is the name a shortcode is registered under.
func (e *Engine) Tag(code string) string { return e.names[code] }

// Render renders trusted page text: protected shortcodes written with the
// site prefix are enabled, then every shortcode is expanded.
func (e *Engine) Render(ctx context.Context, page string) string {
	return e.Expand(ctx, e.Protect(page))
}

// Expand expands the shortcodes in text. Protected shortcodes stay
// literal unless text went through Protect.
func (e *Engine) Expand(ctx context.Context, text string) string {
	return e.codes.Do(ctx, text)
}

// Protect renames the protected shortcodes in text to their registered
// names. Only trusted text should be passed through it.
func (e *Engine) Protect(text string) string {
	if e.protector == nil {
		return text
	}
	return e.protector.Apply(text)
}

// registerCodes registers every shortcode, prefixed with the site's
// shortcode prefix, protected ones under a per-engine secret prefix.
func (e *Engine) registerCodes() {
	handlers := []struct {
		code string
		h    shortcode.Handler
	}{
		{CodeMacro, e.macroCode},
		{CodeTableMacro, e.tableMacro},
		{CodeExpand, e.expand},
		{CodeVars, e.varsCode},
		{CodeFormat, e.format},
		{CodeUnspace, e.unspace},
		{CodeTextMap, e.textMap},
		{CodeRemap, e.remap},
		{CodeAlphabet, e.interpolator(e.alphabetSource)},
		{CodeFromTable, e.interpolator(e.tableSource)},
		{CodeTotals, e.interpolator(e.totalsSource)},
		{CodeLoop, e.interpolator(e.loopSource)},
		{CodeFromBefore, e.interpolator(e.onceSource)},
		{CodeWhereID, e.whereSetter(e.whereID)},
		{CodeWhereLetter1, e.whereSetter(e.whereLetter1)},
		{CodeWhereMatch, e.whereSetter(e.whereMatch)},
		{CodeWhereKey, e.whereSetter(e.whereKey)},
		{CodePaged, e.whereSetter(e.paged)},
	}

	prefix := e.site.ShortcodePrefix
	if prefix != "" {
		prefix += "_"
	}
	secret := prefix + "p" + protectDigest()

	var protected []string
	for _, h := range handlers {
		tag := prefix + h.code
		if e.site.Protected(h.code) {
			protected = append(protected, h.code)
			tag = secret + h.code
		}
		e.names[h.code] = tag
		e.codes.Register(tag, h.h)
	}
	if len(protected) > 0 {
		e.protector = shortcode.NewProtector(prefix, secret, protected)
	}
}

// protectDigest is a fresh random hex string for the protected prefix.
func protectDigest() string {
	seed := uuid.New()
	return fmt.Sprintf("%016x", xxh3.Hash(seed[:]))
}

// query runs sql. A store error is logged and reads as no rows.
func (e *Engine) query(ctx context.Context, sql string) []ir.Row {
	e.log.Debug("query", "sql", sql)
	if e.store == nil {
		return []ir.Row{}
	}
	rows, err := e.store.Query(ctx, sql)
	if err != nil {
		e.log.Warn("query failed, using empty result", "error", err)
		e.log.Debug("failed query", "sql", sql)
		return []ir.Row{}
	}
	return rows
}

// option reads a site option.
func (e *Engine) option(key string) (string, bool) {
	return e.site.Get(key)
}

// keyOption returns the "_key" option with its "_" prefix removed and
// URL-decoded, or def when the option is absent or lacks the prefix.
func (e *Engine) keyOption(def string) string {
	k, ok := e.option("_key")
	if !ok || !strings.HasPrefix(k, "_") {
		return def
	}
	return urlDecode(k[1:])
}
