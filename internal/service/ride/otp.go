package ride

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const otpDigits = 4

var otpSpace = big.NewInt(10_000)

// generateOTP returns 4 random digits, leading zeros kept
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
