// Package recovery settles documents stranded in an in-flight status by an
// unclean shutdown.
//
// The ingestion pipeline moves a document through extracting, classifying and
// chunking before it reaches a terminal status. A crash mid-pipeline leaves
// the document stuck in whichever phase it was in; the Scanner finds those
// documents on startup (and optionally on an interval) and moves each one to
// a terminal status so the system converges instead of accumulating zombies.
//
// # Evidence Rule
//
// The scanner never re-runs pipeline work. It settles documents from
// persisted evidence alone:
//   - interrupted during chunking with chunks already persisted: the useful
//     work finished, the document becomes ready
//   - anything else: the document becomes failed with an error message naming
//     the phase it was interrupted in
//
// # Concurrency
//
// Every transition is an optimistic compare-and-set against the status the
// document had at enumeration time. The store is the serialization point:
// when a concurrent scanner or a resumed pipeline writes first, the
// compare-and-set reports a conflict and the scanner skips the document
// without treating it as an error. Skipped documents appear in no Report
// counter, which is what makes a second pass over a settled store return
// all zeros.
//
// # Failure Handling
//
// Only a failed candidate enumeration aborts a pass. Per-document failures
// are logged and isolated; the remaining candidates are still processed.
// Status change events are published best-effort after the transition
// commits and never roll it back.
package recovery
