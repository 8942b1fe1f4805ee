// Package config loads the site configuration.
//
// A site is described in CUE under the "catsite" field:
//
//	catsite: {
//		per_page: 20
//		tables: {
//			cats: fields: {id: 1, name: 1, owner: "people"}
//			people: fields: {id: 1, name: 1}
//		}
//		options: "_page": "3"
//	}
//
// The configuration is unified with the embedded #Site schema, which
// supplies the defaults and rejects malformed values. Table and field
// order follow the source.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"

	"github.com/roach88/catsite/internal/queryir"
)

//go:embed schema.cue
var schemaSource []byte

// SiteField is the CUE field holding the site configuration.
const SiteField = "catsite"

// Site is a loaded site configuration.
type Site struct {
	PerPage         int               `json:"per_page"`
	TablePrefix     string            `json:"table_prefix"`
	PrimaryKey      string            `json:"primary_key"`
	Letter1Prefix   string            `json:"letter1_prefix"`
	ShortcodePrefix string            `json:"shortcode_prefix"`
	ProtectedCodes  []string          `json:"protected_codes"`
	Lang            string            `json:"lang"`
	LangInPath      bool              `json:"lang_in_path"`
	DocumentRoot    string            `json:"document_root"`
	Options         map[string]string `json:"options"`

	// Tables is the schema map in source order.
	Tables []queryir.Table `json:"-"`
}

// Default returns the configuration of an empty site.
func Default() *Site {
	s, err := Parse("default.cue", []byte(SiteField+": {}"))
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return s
}

// Load reads a site configuration from a .cue file or from a directory
// of CUE files forming one instance.
func Load(path string) (*Site, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ConfigError{Code: ErrCodeNotFound, Message: fmt.Sprintf("configuration not found: %v", err)}
	}

	var args []string
	cfg := &load.Config{}
	if info.IsDir() {
		cfg.Dir = path
		args = []string{"."}
	} else {
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &ConfigError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(ErrCodeLoadFailed, "loading CUE files", inst.Err)
	}

	ctx := cuecontext.New()
	return decode(ctx, ctx.BuildInstance(inst))
}

// Parse reads a site configuration from CUE source text.
func Parse(filename string, src []byte) (*Site, error) {
	ctx := cuecontext.New()
	return decode(ctx, ctx.CompileBytes(src, cue.Filename(filename)))
}

func decode(ctx *cue.Context, v cue.Value) (*Site, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeLoadFailed, "building CUE value", err)
	}

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, cueError(ErrCodeLoadFailed, "building schema", err)
	}

	siteVal := v.LookupPath(cue.ParsePath(SiteField))
	if !siteVal.Exists() {
		return nil, &ConfigError{Code: ErrCodeMissingSite, Message: fmt.Sprintf("no %q field", SiteField)}
	}
	siteVal = schema.LookupPath(cue.ParsePath("#Site")).Unify(siteVal)
	if err := siteVal.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeInvalid, "validating site", err)
	}

	site := &Site{}
	if err := siteVal.Decode(site); err != nil {
		return nil, cueError(ErrCodeInvalid, "decoding site", err)
	}
	if site.Options == nil {
		site.Options = map[string]string{}
	}

	tables, err := decodeTables(siteVal.LookupPath(cue.ParsePath("tables")))
	if err != nil {
		return nil, err
	}
	site.Tables = tables
	return site, nil
}

// decodeTables reads the tables struct keeping declaration order.
func decodeTables(v cue.Value) ([]queryir.Table, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, cueError(ErrCodeInvalid, "iterating tables", err)
	}

	var tables []queryir.Table
	for iter.Next() {
		t := queryir.Table{Name: iter.Selector().Unquoted()}
		tv := iter.Value()

		if sqlVal := tv.LookupPath(cue.ParsePath("sql")); sqlVal.Exists() {
			if t.SQL, err = sqlVal.String(); err != nil {
				return nil, cueError(ErrCodeInvalid, "tables."+t.Name+".sql", err)
			}
		}

		fields, err := tv.LookupPath(cue.ParsePath("fields")).Fields()
		if err != nil {
			return nil, cueError(ErrCodeInvalid, "tables."+t.Name+".fields", err)
		}
		for fields.Next() {
			f := queryir.Field{Name: fields.Selector().Unquoted()}
			if fields.Value().IncompleteKind() == cue.StringKind {
				if f.Ref, err = fields.Value().String(); err != nil {
					return nil, cueError(ErrCodeInvalid, "tables."+t.Name+".fields."+f.Name, err)
				}
			}
			t.Fields = append(t.Fields, f)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// cueError converts a CUE error, keeping the first position.
func cueError(code ConfigErrorCode, context string, err error) *ConfigError {
	ce := &ConfigError{Code: code, Message: fmt.Sprintf("%s: %v", context, err)}
	var cerr cueerrors.Error
	if errors.As(err, &cerr) {
		if pos := cerr.Position(); pos.IsValid() {
			ce.Pos = pos
		}
		if path := cerr.Path(); len(path) > 0 {
			ce.Field = cue.MakePath(selectors(path)...).String()
		}
	}
	return ce
}

func selectors(path []string) []cue.Selector {
	out := make([]cue.Selector, len(path))
	for i, p := range path {
		out[i] = cue.Str(p)
	}
	return out
}

// Schema builds the table schema map. Each call returns a fresh copy.
func (s *Site) Schema() *queryir.Schema {
	return queryir.NewSchema(s.TablePrefix, s.Tables)
}

// Get returns a free-form option.
func (s *Site) Get(key string) (string, bool) {
	v, ok := s.Options[key]
	return v, ok
}

// WithOptions returns a copy of the site with extra options set over the
// configured ones.
func (s *Site) WithOptions(opts map[string]string) *Site {
	c := *s
	c.Options = maps.Clone(s.Options)
	if c.Options == nil {
		c.Options = map[string]string{}
	}
	maps.Copy(c.Options, opts)
	return &c
}

// Protected reports whether tag is registered under the protected prefix.
func (s *Site) Protected(tag string) bool {
	for _, c := range s.ProtectedCodes {
		if c == "*" || c == tag {
			return true
		}
	}
	return false
}

// LangPath is the language path segment, "/en" style, or empty when
// the language is not part of page paths.
func (s *Site) LangPath() string {
	if !s.LangInPath || s.Lang == "" {
		return ""
	}
	return "/" + strings.ToLower(s.Lang)
}
