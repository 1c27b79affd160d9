// Package projection holds the read-side state derived from ledger facts:
// per-payment redemption records, the FIFO expiration queues and the directory
// used for existence lookups. Projections lag the ledger; they never decide
// whether a transition is legal, they only refuse facts that contradict their
// own state.
package projection
