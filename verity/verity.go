// Package verity derives the dm-verity volume UUID and salt from image
// contents, so that rebuilding an identical image yields identical metadata.
package verity

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// UUID returns a BLAKE2b digest of the input formatted as a UUID.
func UUID(r io.Reader) (uuid.UUID, error) {
	digest, err := sum(r, 16)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.FromBytes(digest)
}

// Salt returns a 32-byte BLAKE2b digest of the input as lowercase hex.
func Salt(r io.Reader) (string, error) {
	digest, err := sum(r, 32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(digest), nil
}

func sum(r io.Reader, size int) ([]byte, error) {
	h, err := blake2b.New(size, nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, r); err != nil {
		return nil, fmt.Errorf("hashing input: %w", err)
	}
	return h.Sum(nil), nil
}
