// SPDX-License-Identifier: GPL-3.0-only

package crypto

import (
	crand "crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	OTPMin = 100000
	OTPMax = 999999
)

// GenerateOTP draws a uniform six-digit code in [OTPMin, OTPMax] from r.
// Pass nil to use crypto/rand.
func GenerateOTP(r io.Reader) (int, error) {
	if r == nil {
		r = crand.Reader
	}
	n, err := crand.Int(r, big.NewInt(OTPMax-OTPMin+1))
	if err != nil {
		return 0, fmt.Errorf("failed to generate OTP: %w", err)
	}
	return OTPMin + int(n.Int64()), nil
}

const shortCodeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateShortCode returns a random alphanumeric code of the given length.
func GenerateShortCode(r io.Reader, length int) (string, error) {
	if r == nil {
		r = crand.Reader
	}
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(shortCodeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := crand.Int(r, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}
		sb.WriteByte(shortCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}
