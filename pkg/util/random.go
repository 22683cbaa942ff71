package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateVerificationCode generates a random 6-digit numeric code
func GenerateVerificationCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
