// Package queryir describes the database as templates see it and plans the
// joins needed to read a set of field paths.
//
// SCHEMA:
//
// A Schema is an ordered list of tables. Each table has an ordered list of
// fields; a field is either a scalar value or a reference to another table
// (a foreign key holding that table's primary key). The first table is the
// default root for queries that do not name one.
//
//	cats:    id, name, color, owner -> people, mother -> cats
//	people:  id, name, city
//
// PATHS:
//
// Templates name fields by path, walking references with "->":
//
//	name                 cats.name
//	owner->name          people.name through cats.owner
//	mother->owner->name  two joins deep
//
// A segment "field@table" names the target table explicitly. It is
// accepted when field exists on the current table and table exists in the
// schema, and it is remembered on the schema for later lookups. Because
// of that, a Schema shared between renders must be cloned first.
//
// PLANS:
//
// A Planner collects paths and produces a Plan: one node per joined table,
// numbered __t0, __t1, ... breadth-first from the root, and one column per
// requested path. Paths that do not resolve are dropped and listed in
// Plan.Dropped; they render as empty values instead of failing the query.
//
// Plans are dialect-free. Package querysql turns them into SQL text.
package queryir
