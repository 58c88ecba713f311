// Package edgelist reads and writes the tab-separated weighted edge list text
// format.
//
// # Format
//
// One edge per line, three fields separated by a single tab:
//
//	<node>\t<node>\t<weight>
//
// Node ids are unsigned 32-bit integers and the weight is an unsigned 8-bit
// integer (0-255), all in decimal. On input the two node fields may appear in
// either order. On output (see [Writer]) the first field is always the stored
// key, which is the lower endpoint.
//
// # Parsing
//
// [Reader] tokenizes each line explicitly and range-checks every number.
// What happens on a malformed line depends on the [Policy]:
//
//   - [PolicyStrict] stops at the first bad line and reports a [*ParseError]
//     carrying the 1-based line number.
//   - [PolicySkip] drops the line, counts it, and keeps going.
//
// Blank lines carry no edge and are ignored under both policies. Empty input
// yields zero edges and no error.
package edgelist
