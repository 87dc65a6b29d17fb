package utils

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}

	ok, err := VerifyPassword("correct horse battery", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(correct) = %v, %v", ok, err)
	}
	ok, err = VerifyPassword("wrong", hash)
	if err != nil || ok {
		t.Fatalf("VerifyPassword(wrong) = %v, %v", ok, err)
	}
	if _, err := VerifyPassword("x", "$bcrypt$nope"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestCipherRoundTrip(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	c, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	sealed, err := c.Encrypt("felt calmer after the walk")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == "felt calmer after the walk" {
		t.Fatal("ciphertext equals plaintext")
	}
	plain, err := c.Decrypt(sealed)
	if err != nil || plain != "felt calmer after the walk" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}

	var nilCipher *Cipher
	if out, _ := nilCipher.Encrypt("plain"); out != "plain" {
		t.Fatalf("nil cipher should pass through, got %q", out)
	}
	if _, err := NewCipher("short"); err == nil {
		t.Fatal("expected error for bad key")
	}
}

func TestValidators(t *testing.T) {
	if err := ValidateEmail("someone@example.com"); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	if err := ValidateEmail("Someone <someone@example.com>"); err == nil {
		t.Fatal("display-name form should be rejected")
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatal("short password accepted")
	}
	if err := ValidateDisplayName(" a "); err == nil {
		t.Fatal("one-letter name accepted")
	}

	got := CleanList([]string{" anxiety ", "", "Anxiety", "grief", "sleep"}, 2)
	if len(got) != 2 || got[0] != "anxiety" || got[1] != "grief" {
		t.Fatalf("CleanList = %v", got)
	}
}
