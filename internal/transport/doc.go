// Package transport maintains the client's live websocket session to
// the coordinator. A session is dialed when a room is opened and torn
// down when it is left; pushes and status updates arrive on callbacks
// from a single read loop.
//
// Delivery through a session is at-most-once. A send that fails
// surfaces its error to the caller and is not queued or retried; the
// pending-envelope catch-up fetch is what repairs missed traffic.
package transport
