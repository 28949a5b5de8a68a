package crypto_test

import (
	"bytes"
	"testing"

	"kittycore/internal/crypto"
)

func TestDH_Commutes(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}

	ab, err := crypto.DH(aPriv, bPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	ba, err := crypto.DH(bPriv, aPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	if ab != ba {
		t.Fatal("shared secrets differ")
	}
	if crypto.DeriveMessageKey(ab) != crypto.DeriveMessageKey(ba) {
		t.Fatal("derived keys differ")
	}
}

func TestGenerateX25519_Distinct(t *testing.T) {
	_, pub1, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	_, pub2, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	if pub1 == pub2 {
		t.Fatal("two generated public keys are identical")
	}
}

func TestB64_RoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{0},
		{0xff, 0x00, 0x7f},
		bytes.Repeat([]byte{0xab}, 1024),
	}
	for _, in := range cases {
		got, err := crypto.B64Decode(crypto.B64(in))
		if err != nil {
			t.Fatalf("B64Decode: %v", err)
		}
		if !bytes.Equal(got, in) {
			t.Fatalf("round trip mismatch: got %x want %x", got, in)
		}
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	crypto.Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not wiped", i)
		}
	}
}
