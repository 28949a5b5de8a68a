// Package domain defines the core types shared across kittycore: key
// material, message envelopes, rooms, local cache records, and the
// interfaces that bind the client and coordinator together.
//
// All key material uses fixed-size array types to avoid accidental
// reallocation of secrets. Identifiers are distinct string types so a
// session token can never be passed where a user id is expected.
package domain
