// Package execrec handles execution records: one directory of thread trace
// files per fuzzer execution, all under a common guards root
// (<work>/exec_recs/guards/<exec-name>/).
//
// Scan builds the forest of every record in parallel and reports whether the
// record reached the constraint. The scan is fail-fast: the first record that
// cannot be built cancels the rest and Scan returns only that error.
package execrec
