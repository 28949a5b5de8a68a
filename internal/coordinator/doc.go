// Package coordinator is the server side of kittycore: the identity
// directory, room control, the durable envelope log, and the live
// websocket fan-out.
//
// The SQLite log is the single source of truth for ciphertext and
// delivery status. Rooms are found-or-created atomically via a unique
// constraint on the normalized participant pair, and envelopes are
// appended with single INSERT statements, so concurrent first contact
// and concurrent sends cannot lose writes. The per-envelope status
// machine is pending → sent, driven by receiver acknowledgements;
// duplicate or out-of-order acks are no-ops.
package coordinator
