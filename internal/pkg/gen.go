package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const roomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const roomIDLength = 6

// GenerateRoomID - generates a short shareable identifier for a room.
func GenerateRoomID() string {
	id := make([]byte, roomIDLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomIDAlphabet))))
		if err != nil {
			return ""
		}
		id[i] = roomIDAlphabet[n.Int64()]
	}

	return string(id)
}

// GenerateConnectionID - generates a new unique identifier for a connection.
func GenerateConnectionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-connection-id"
	}

	return base64.RawURLEncoding.EncodeToString(b)
}
