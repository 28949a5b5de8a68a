// Package crypto exposes the primitives used by kittycore.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateX25519, DH)
//   - Per-message symmetric key derivation (DeriveMessageKey)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//   - The exact byte↔text transport encoding (B64, B64Decode)
//
// All functions operate on the fixed-size array types defined in
// internal/domain to avoid accidental reallocation of secrets.
package crypto
