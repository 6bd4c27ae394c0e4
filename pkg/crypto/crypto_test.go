package crypto

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================
// Encrypt / Decrypt Tests
// ============================================================

func TestEncryptDecryptRoundtrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	plaintext := "polymarket-api-key-secret"

	encrypted, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted == plaintext {
		t.Error("ciphertext must differ from plaintext")
	}

	decrypted, err := Decrypt(encrypted, key)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("expected %q, got %q", plaintext, decrypted)
	}
}

func TestEncryptRejectsShortKey(t *testing.T) {
	_, err := Encrypt("data", []byte("short"))
	if !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key1 := []byte("0123456789abcdef0123456789abcdef")
	key2 := []byte("fedcba9876543210fedcba9876543210")

	encrypted, err := Encrypt("secret", key1)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	_, err = Decrypt(encrypted, key2)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptGarbage(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	if _, err := Decrypt("not-base64!!!", key); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := Decrypt("YWJj", key); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}
}

// ============================================================
// Token Hash Tests
// ============================================================

func TestHashAndVerifyToken(t *testing.T) {
	hash, err := HashToken("admin-token-1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if err := VerifyToken("admin-token-1", hash); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}
	if err := VerifyToken("wrong-token", hash); !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("expected ErrTokenMismatch, got %v", err)
	}
}

func TestHashTokenValidation(t *testing.T) {
	if _, err := HashToken(""); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("expected ErrEmptyToken, got %v", err)
	}
	if _, err := HashToken(strings.Repeat("x", 73)); !errors.Is(err, ErrTokenTooLong) {
		t.Errorf("expected ErrTokenTooLong, got %v", err)
	}
}

func TestCheckTokenMatch(t *testing.T) {
	hash, _ := HashToken("tok")
	if !CheckTokenMatch("tok", hash) {
		t.Error("expected match")
	}
	if CheckTokenMatch("other", hash) {
		t.Error("expected mismatch")
	}
}
