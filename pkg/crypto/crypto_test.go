package crypto

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := "test-encryption-key"
	secret := "ya29.a0AfH6SMB-refresh-token"

	encrypted, err := Encrypt(secret, key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if encrypted == secret {
		t.Error("expected ciphertext to differ from plaintext")
	}

	decrypted, err := Decrypt(encrypted, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if decrypted != secret {
		t.Errorf("expected %q, got %q", secret, decrypted)
	}
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	key := "test-encryption-key"

	a, err := Encrypt("same input", key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	b, err := Encrypt("same input", key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if a == b {
		t.Error("expected random nonces to produce distinct ciphertexts")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt("secret", "key-one")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := Decrypt(encrypted, "key-two"); err == nil {
		t.Error("expected decryption with wrong key to fail")
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	if _, err := Encrypt("secret", ""); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := Decrypt("abc", ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestEmptyPlaintextPassesThrough(t *testing.T) {
	encrypted, err := Encrypt("", "key")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if encrypted != "" {
		t.Errorf("expected empty string, got %q", encrypted)
	}
}

func TestDecryptGarbage(t *testing.T) {
	if _, err := Decrypt("not base64!!!", "key"); err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("expected decode error, got %v", err)
	}
}
