// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateOTPRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		otp, err := GenerateOTP(nil)
		if err != nil {
			t.Fatalf("GenerateOTP failed: %v", err)
		}
		if otp < OTPMin || otp > OTPMax {
			t.Fatalf("OTP %d outside [%d, %d]", otp, OTPMin, OTPMax)
		}
	}
}

func TestGenerateOTPDeterministicSource(t *testing.T) {
	// An all-zero source always draws the smallest value in range.
	zeros := bytes.NewReader(make([]byte, 64))
	otp, err := GenerateOTP(zeros)
	if err != nil {
		t.Fatalf("GenerateOTP failed: %v", err)
	}
	if otp != OTPMin {
		t.Errorf("Expected %d from zero source, got %d", OTPMin, otp)
	}
}

func TestGenerateShortCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := GenerateShortCode(nil, 8)
		if err != nil {
			t.Fatalf("GenerateShortCode failed: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("Expected length 8, got %d (%s)", len(code), code)
		}
		for _, r := range code {
			if !strings.ContainsRune(shortCodeAlphabet, r) {
				t.Fatalf("Character %q outside alphabet", r)
			}
		}
		if seen[code] {
			t.Fatalf("Duplicate code %s within 100 draws", code)
		}
		seen[code] = true
	}
}
