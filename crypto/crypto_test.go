// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	crypto := NewCrypto()
	password := "testpassword123"

	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("Hash should not be empty")
	}

	hash2, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("Second HashPassword failed: %v", err)
	}

	if hash == hash2 {
		t.Error("Two hashes of same password should be different (due to salt)")
	}
}

func TestVerifyPassword(t *testing.T) {
	crypto := NewCrypto()
	password := "testpassword123"
	wrongPassword := "wrongpassword"

	hash, err := crypto.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	err = crypto.VerifyPassword(password, hash)
	if err != nil {
		t.Errorf("VerifyPassword failed for correct password: %v", err)
	}

	err = crypto.VerifyPassword(wrongPassword, hash)
	if err == nil {
		t.Error("VerifyPassword should fail for wrong password")
	}

	err = crypto.VerifyPassword(password, "invalid-hash")
	if err == nil {
		t.Error("VerifyPassword should fail for invalid hash")
	}
}

func TestGenerateRandomString(t *testing.T) {
	hexStr, err := GenerateRandomString("st_", 16, "hex")
	if err != nil {
		t.Fatalf("GenerateRandomString hex failed: %v", err)
	}
	if !strings.HasPrefix(hexStr, "st_") {
		t.Errorf("Expected prefix st_, got %s", hexStr)
	}
	if len(hexStr) != 3+32 {
		t.Errorf("Expected 35 characters, got %d", len(hexStr))
	}

	b64Str, err := GenerateRandomString("", 16, "base64")
	if err != nil {
		t.Fatalf("GenerateRandomString base64 failed: %v", err)
	}
	if b64Str == "" {
		t.Error("base64 string should not be empty")
	}

	if _, err := GenerateRandomString("", 16, "rot13"); err == nil {
		t.Error("GenerateRandomString should fail for unsupported encoding")
	}
}
