// Package cache is the client's durable local message store: a
// Badger-backed projection of decrypted envelopes, keyed by message id
// inside a per-room prefix. Upserts are idempotent, so reconciliation
// can replay any envelope without duplicating records. The server never
// sees the plaintext held here.
package cache
