package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	referenceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	referenceLength   = 6
)

// NewReferenceNumber returns "MM-<year>-<6 chars of [0-9A-Z]>".
func NewReferenceNumber(now time.Time) (string, error) {
	suffix := make([]byte, referenceLength)
	base := big.NewInt(int64(len(referenceAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", fmt.Errorf("failed to generate reference number: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("MM-%d-%s", now.Year(), suffix), nil
}
