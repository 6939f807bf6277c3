package token

import (
	"encoding/base64"
	"testing"
)

func TestGenerateOpaque(t *testing.T) {
	t.Parallel()

	tok, err := GenerateOpaque(32)
	if err != nil {
		t.Fatalf("GenerateOpaque: %v", err)
	}
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("not base64url: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("entropy = %d bytes, want 32", len(raw))
	}

	other, err := GenerateOpaque(32)
	if err != nil {
		t.Fatalf("GenerateOpaque: %v", err)
	}
	if tok == other {
		t.Fatal("two tokens identical")
	}
}

func TestGenerateOpaqueDefaultSize(t *testing.T) {
	t.Parallel()

	tok, err := GenerateOpaque(0)
	if err != nil {
		t.Fatalf("GenerateOpaque: %v", err)
	}
	raw, _ := base64.RawURLEncoding.DecodeString(tok)
	if len(raw) != 32 {
		t.Fatalf("default entropy = %d bytes, want 32", len(raw))
	}
}

func TestSHA256Hex(t *testing.T) {
	t.Parallel()

	// Vector conocido de SHA-256("abc").
	got := SHA256Hex("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("SHA256Hex(abc) = %s, want %s", got, want)
	}

	if SHA256Hex("a") == SHA256Hex("b") {
		t.Fatal("distinct inputs share digest")
	}
}
