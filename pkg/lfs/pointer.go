// Package lfs implements the client side of the Git LFS batch API:
// pointer handling and object upload to a remote LFS server.
package lfs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/git-lfs/git-lfs/v3/lfs"
)

// LFS pointers are small (typically < 200 bytes) and have a specific format
const MaxPointerSize = 1024

// DecodePointer parses an LFS pointer from a reader.
// Returns an error if the content is not a valid LFS pointer.
func DecodePointer(r io.Reader) (*lfs.Pointer, error) {
	return lfs.DecodePointer(r)
}

// FormatPointer renders the canonical LFS pointer text for an object.
func FormatPointer(oid string, size int64) string {
	return fmt.Sprintf("version https://git-lfs.github.com/spec/v1\noid sha256:%s\nsize %d\n", oid, size)
}

// HashReader consumes r and returns the sha256 OID and size of its
// content.
func HashReader(r io.Reader) (string, int64, error) {
	hash := sha256.New()
	size, err := io.Copy(hash, r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash content: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}
