package queryir

import (
	"maps"
	"strconv"
	"strings"
)

// PathSep separates the segments of a field path.
const PathSep = "->"

// AliasSep replaces PathSep in result column aliases.
const AliasSep = "__"

// nodeAliasPrefix prefixes generated table aliases.
const nodeAliasPrefix = "__t"

// ColumnAlias returns the result column alias of a path: "owner->name"
// reads back as "owner__name".
func ColumnAlias(path string) string {
	return strings.ReplaceAll(path, PathSep, AliasSep)
}

// Planner accumulates requested paths under one root table.
//
// Usage:
//
//	p := queryir.NewPlanner(schema, "cats")
//	p.Select("name", "owner->name") // output columns
//	p.Require("id")                 // needed by WHERE, not selected
//	plan := p.Plan()
type Planner struct {
	schema   *Schema
	root     *request
	selected map[string]string
	order    []string
	dropped  []string
	hits     int
}

// request is one node of the request tree, fields in insertion order.
type request struct {
	table    string
	fields   []string
	children map[string]*request
}

func newRequest(table string) *request {
	return &request{table: table, children: make(map[string]*request)}
}

func (r *request) add(field string) {
	for _, f := range r.fields {
		if f == field {
			return
		}
	}
	r.fields = append(r.fields, field)
}

// NewPlanner starts a plan rooted at table, or at the schema's first table
// when table is unknown.
func NewPlanner(s *Schema, table string) *Planner {
	return &Planner{
		schema:   s,
		root:     newRequest(s.Root(table)),
		selected: make(map[string]string),
	}
}

// RootTable is the table the plan reads from.
func (p *Planner) RootTable() string { return p.root.table }

// Select requests paths as output columns. It returns how many of them
// resolved; the others are recorded as dropped.
func (p *Planner) Select(paths ...string) int {
	n := 0
	for _, path := range paths {
		if !p.add(path) {
			p.dropped = append(p.dropped, path)
			continue
		}
		if _, dup := p.selected[path]; !dup {
			p.selected[path] = ColumnAlias(path)
			p.order = append(p.order, path)
		}
		n++
	}
	p.hits += n
	return n
}

// Require requests paths that must be joined and addressable but are not
// output columns. Unresolved paths are ignored.
func (p *Planner) Require(paths ...string) {
	for _, path := range paths {
		p.add(path)
	}
}

// Empty reports whether no selected path resolved.
func (p *Planner) Empty() bool { return p.hits == 0 }

// add walks path through the schema and records it in the request tree.
func (p *Planner) add(path string) bool {
	segs := strings.Split(path, PathSep)

	// Validate first so a bad tail leaves no partial joins behind.
	table := p.root.table
	for _, seg := range segs {
		if table == "" {
			return false
		}
		ref, ok := p.schema.Resolve(table, seg)
		if !ok {
			return false
		}
		table = ref
	}

	node := p.root
	for i, seg := range segs {
		node.add(seg)
		ref, _ := p.schema.Resolve(node.table, seg)
		if ref == "" || i == len(segs)-1 {
			break
		}
		child, ok := node.children[seg]
		if !ok {
			child = newRequest(ref)
			node.children[seg] = child
		}
		node = child
	}
	return true
}

// Node is one table instance of a plan.
type Node struct {
	Table string
	Alias string

	// Parent and ParentField describe the join: Parent.ParentField holds
	// this node's primary key. Both are empty for the root.
	Parent      *Node
	ParentField string

	// Base is the path prefix of fields read through this node.
	Base string
}

// Column is one addressable path of a plan.
type Column struct {
	Path  string
	Node  *Node
	Field string
}

// Plan is the resolved join tree of a Planner.
type Plan struct {
	// Nodes in breadth-first order; Nodes[0] is the root.
	Nodes []*Node

	// Columns are every resolved path, selected or required, in
	// breadth-first order.
	Columns []Column

	// Selected lists the selected paths in request order, and Aliases
	// maps each to its result column alias.
	Selected []string
	Aliases  map[string]string

	// Dropped lists selected paths that did not resolve.
	Dropped []string
}

// Plan assigns table aliases breadth-first and lists the columns.
func (p *Planner) Plan() *Plan {
	plan := &Plan{
		Selected: append([]string(nil), p.order...),
		Aliases:  maps.Clone(p.selected),
		Dropped:  append([]string(nil), p.dropped...),
	}

	type item struct {
		req  *request
		node *Node
	}
	root := &Node{Table: p.root.table, Alias: nodeAliasPrefix + "0"}
	plan.Nodes = append(plan.Nodes, root)
	queue := []item{{p.root, root}}

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		for _, field := range it.req.fields {
			path := it.node.Base + field
			ident, _, _ := strings.Cut(field, "@")
			plan.Columns = append(plan.Columns, Column{Path: path, Node: it.node, Field: ident})

			child, ok := it.req.children[field]
			if !ok {
				continue
			}
			n := &Node{
				Table:       child.table,
				Alias:       nodeAliasPrefix + strconv.Itoa(len(plan.Nodes)),
				Parent:      it.node,
				ParentField: ident,
				Base:        path + PathSep,
			}
			plan.Nodes = append(plan.Nodes, n)
			queue = append(queue, item{child, n})
		}
	}
	return plan
}

// Column looks up the column of path.
func (pl *Plan) Column(path string) (Column, bool) {
	for _, c := range pl.Columns {
		if c.Path == path {
			return c, true
		}
	}
	return Column{}, false
}
