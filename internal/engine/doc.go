// Package engine renders site pages: one Engine per page request.
//
// An Engine owns everything a render mutates: the variable namespace, the
// text maps, the macro registry, the compiled pipelines, the active WHERE
// condition and the last result set. It registers the site's shortcodes
// and expands them in page text:
//
//	[where_letter1 name]
//	[paged 20]
//	[from_table cats]<li>${name} (${owner->name})</li>[/from_table]
//
// Every block that reads data issues exactly one blocking query before it
// interpolates its rows. Nothing is shared between engines, so concurrent
// requests each create their own.
//
// Failures degrade instead of stopping the render:
//
//   - A store error is logged and reads as an empty result set.
//   - A WHERE setter that cannot build its condition clears the active
//     condition, so later queries match nothing.
//   - A field that does not resolve is dropped from the query and renders
//     empty.
package engine
