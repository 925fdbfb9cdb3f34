// Package diag collects findings produced while a forest is assembled.
//
// Replay of one thread file can fail (malformed guard line, return past the
// root frame, mismatched return name, unreadable file). Such a failure is
// local to that file: the file is left out of the forest and the failure is
// recorded here as an error diagnostic, so other threads of the same
// execution still build. Forest-level oddities (no main thread, an unknown
// file name, a created thread without a trace file) are warnings.
//
// # Data model
//
//   - Severity: Info, Warning, Error.
//   - Code: compact numeric identifier with a stable string form (GRD, FOR, IO).
//   - Message: short human text.
//   - Primary: Position (trace file path plus 1-based line, 0 when unknown).
//   - Notes: optional extra positions.
//
// # Emitting
//
// Producers use a Reporter; BagReporter stores into a Bag and DedupReporter
// drops repeats. A Bag sorts deterministically by position, severity, code.
// FormatShort renders one line per diagnostic for the CLI.
package diag
