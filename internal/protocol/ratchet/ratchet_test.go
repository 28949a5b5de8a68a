package ratchet_test

import (
	"bytes"
	"errors"
	"testing"

	"kittycore/internal/crypto"
	"kittycore/internal/domain"
	"kittycore/internal/protocol/ratchet"
)

// makeIdentity returns a fresh static X25519 pair.
func makeIdentity(t *testing.T) (priv domain.X25519Private, pub domain.X25519Public) {
	t.Helper()
	p, P, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	return p, P
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	bobPriv, bobPub := makeIdentity(t)

	plaintexts := [][]byte{
		[]byte("hi"),
		[]byte(""),
		[]byte("a longer message with spaces and unicode: héllo ✨"),
		bytes.Repeat([]byte{0x00}, 4096),
	}
	for _, want := range plaintexts {
		ct, eph, err := ratchet.Encrypt(bobPub, want)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		got, err := ratchet.Decrypt(bobPriv, eph, ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
}

func TestEncrypt_FreshEphemeralPerMessage(t *testing.T) {
	_, bobPub := makeIdentity(t)

	ct1, eph1, err := ratchet.Encrypt(bobPub, []byte("same"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	ct2, eph2, err := ratchet.Encrypt(bobPub, []byte("same"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if eph1 == eph2 {
		t.Fatal("ephemeral key reused across messages")
	}
	if ct1 == ct2 {
		t.Fatal("identical ciphertexts for two encryptions")
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	bobPriv, bobPub := makeIdentity(t)

	ct, eph, err := ratchet.Encrypt(bobPub, []byte("attack at dawn"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw, err := crypto.B64Decode(ct)
	if err != nil {
		t.Fatalf("B64Decode: %v", err)
	}

	// Flip every single bit of the ciphertext (nonce included) and make
	// sure each mutation is rejected.
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), raw...)
			mutated[i] ^= 1 << bit
			_, err := ratchet.Decrypt(bobPriv, eph, crypto.B64(mutated))
			if !errors.Is(err, domain.ErrDecrypt) {
				t.Fatalf("bit %d of byte %d: got %v, want ErrDecrypt", bit, i, err)
			}
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	_, bobPub := makeIdentity(t)
	evePriv, _ := makeIdentity(t)

	ct, eph, err := ratchet.Encrypt(bobPub, []byte("for bob only"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := ratchet.Decrypt(evePriv, eph, ct); !errors.Is(err, domain.ErrDecrypt) {
		t.Fatalf("got %v, want ErrDecrypt", err)
	}
}

func TestDecrypt_MalformedInput(t *testing.T) {
	bobPriv, bobPub := makeIdentity(t)

	ct, eph, err := ratchet.Encrypt(bobPub, []byte("short"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	cases := map[string]string{
		"not base64":  "%%%not-base64%%%",
		"empty":       "",
		"truncated":   ct[:8],
		"nonce only":  crypto.B64(make([]byte, 12)),
	}
	for name, bad := range cases {
		if _, err := ratchet.Decrypt(bobPriv, eph, bad); !errors.Is(err, domain.ErrDecrypt) {
			t.Fatalf("%s: got %v, want ErrDecrypt", name, err)
		}
	}
}
