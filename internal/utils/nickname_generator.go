package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var adjectives = []string{
	"Bright", "Steady", "Keen", "Prime", "Solid",
	"Rapid", "Clear", "Noble", "Sharp", "True",
}

var nouns = []string{
	"Maple", "Cedar", "Harbor", "Summit", "Meadow",
	"River", "Canyon", "Garden", "Valley", "Grove",
}

// GenerateNickname creates a fallback display name for a partner that
// registered without one, in the format "Adjective Noun ####".
func GenerateNickname() (string, error) {
	adjIdx, err := rand.Int(rand.Reader, big.NewInt(int64(len(adjectives))))
	if err != nil {
		return "", fmt.Errorf("failed to pick adjective: %w", err)
	}

	nounIdx, err := rand.Int(rand.Reader, big.NewInt(int64(len(nouns))))
	if err != nil {
		return "", fmt.Errorf("failed to pick noun: %w", err)
	}

	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to pick suffix: %w", err)
	}

	return fmt.Sprintf("%s %s %04d", adjectives[adjIdx.Int64()], nouns[nounIdx.Int64()], suffix.Int64()), nil
}
