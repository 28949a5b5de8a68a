// Package keyexchange owns the device's static identity key pair and
// the peer public key lookup against the identity directory.
package keyexchange
