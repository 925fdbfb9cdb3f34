// Package analysis runs read-only queries over completed thread trees.
//
// Every query is deterministic: running it twice on the same tree gives the
// same result, and ties are broken by name or location. None of them return
// an error for a tree the builder accepted; an empty (root only) tree simply
// yields empty reports.
package analysis
