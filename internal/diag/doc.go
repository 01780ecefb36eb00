// Package diag defines the diagnostic model shared by the linker, the unit
// loader and the CLI.
//
// Diagnostic is a plain record: severity, a stable numeric Code (rendered as
// LNK1002, IO2001, ...), a short message, the primary span and optional
// notes. Producers emit through a Reporter, usually a BagReporter writing
// into a Bag; the Bag sorts and de-duplicates so output does not depend on
// the order in which parallel workers finished.
//
// Linker error codes (LNK1001..LNK1005) are fatal to a linking pass. The
// linker still collects every failing chain before giving up, so one run
// reports all malformed declarations at once.
package diag
