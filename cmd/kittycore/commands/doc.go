// Package commands implements the kittycore CLI: account and key
// management, room control, and sending, syncing, and reading
// end-to-end encrypted messages.
package commands
