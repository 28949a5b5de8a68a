// Package reconciler merges the coordinator's envelope log into the
// device's local plaintext cache and emits acknowledgements back.
//
// Reconciliation is idempotent: every merge is an upsert keyed by
// envelope id, so re-running a catch-up pass or re-receiving a push
// can never duplicate a record. Envelopes that fail authentication
// become placeholder records rather than aborting the batch, and are
// never acknowledged.
//
// Sending is local-first. The plaintext record is cached before the
// ciphertext leaves the device, and a transport failure after that
// point is surfaced to the caller without retrying; the message then
// exists locally but nowhere else.
package reconciler
