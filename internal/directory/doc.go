// Package directory is the client's HTTP view of the coordinator's
// identity directory: account registration, session login, static key
// publish and lookup, room control, and the pending-envelope catch-up
// fetch.
package directory
