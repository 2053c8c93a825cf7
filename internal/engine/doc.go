// Package engine implements the notefire automation run: scan, parse,
// resolve, fingerprint, dispatch.
//
// ARCHITECTURE:
//
// Single-pass, run-to-completion. There is no background scheduler and no
// event queue - the engine is invoked on demand, processes a bounded
// document set front to back, and exits. "Retry" means running the engine
// again later; the fingerprint gate in front of the ledger makes that safe.
//
// Processing order is document order, then line order, then left-to-right
// within a line. The order matters only for human-readable report
// stability: fingerprint-based idempotency makes each occurrence's outcome
// independent of when it is processed.
//
// ERROR POLICY: every per-occurrence failure - malformed tag, missing
// field, unresolvable time, bridge error - is local. It is recorded in the
// report and processing continues. Nothing is retried within a run, because
// an in-run retry would sidestep the ledger gate that makes cross-run
// retries safe.
//
// The only blocking operation is the bridge call in execute mode, bounded
// by a per-call timeout. Cancelling the run context stops new bridge calls
// from starting but lets the in-flight one finish, so no external action is
// ever abandoned mid-flight with unknown outcome.
package engine
