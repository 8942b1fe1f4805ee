// Package harness runs render scenarios against the fixture database.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config: site.cue          # optional, default: the fixture site
//	options: { _page: "2" }
//	setup:
//	  - "UPDATE catsite_cats SET weight = 6 WHERE id = 1"
//	flow:
//	  - render: "[from_table]${name}[/from_table]"
//	    expect: "Mimi"
//	assertions:
//	  - type: output_contains
//	    step: 0
//	    text: Mimi
//	  - type: var_equals
//	    name: _count
//	    value: "1"
//
// All flow steps are rendered by one engine, so variables, macros, text maps
// and the active condition carry over from one step to the next.
//
// # Assertion Types
//
//   - output_contains, output_equals: check the output of one step
//   - var_equals, var_unset: check a variable of the final namespace
//   - result_count: check the size of the last result set
//   - where_cleared: check that no condition is active
//
// # Deterministic Testing
//
// Every scenario runs in a fresh in-memory SQLite database seeded with the
// fixture tables (see testutil.Seed), with a fixed request id, so outputs
// compare byte for byte against golden files.
package harness
