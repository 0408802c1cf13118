/*
Package randx generates identifiers used across the SmartComms server: UUID
message ids and random display names for accounts created without one.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the character set for random name suffixes.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// nameSuffixLength is the number of random characters appended to a
	// generated display name.
	nameSuffixLength = 6
)

// MessageID returns a UUID v4 string that identifies a single message.
func MessageID() string {
	return uuid.New().String()
}

// NewID returns a UUID v4 string for users and chats.
func NewID() string {
	return uuid.New().String()
}

// DisplayName returns a random display name of the form "User_XXXXXX".
func DisplayName() (string, error) {
	suffix := make([]byte, nameSuffixLength)

	for i := range nameSuffixLength {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(Base62Chars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random display name: %w", err)
		}
		suffix[i] = Base62Chars[n.Int64()]
	}

	return "User_" + string(suffix), nil
}
