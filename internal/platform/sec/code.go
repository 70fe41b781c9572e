// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of a one-time code.
const OTPDigits = 6

var otpUpperBound = big.NewInt(1_000_000)

// GenerateOTPCode returns a uniformly distributed, zero-padded 6-digit code
// drawn from crypto/rand.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, otpUpperBound)
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate otp code: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n.Int64()), nil
}
