// Package hashing computes content digests for files tracked by the
// integrity index. The digest algorithm is SHA-256; output is lowercase
// hex so the persisted index stays verifiable with sha256sum.
package hashing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// bufSize is the read buffer used while streaming file contents.
const bufSize = 1 << 20 // 1 MiB

// Hasher computes a content digest for the file at path.
// Implementations must be safe for concurrent use.
type Hasher interface {
	// HashFile returns the lowercase hex digest of the file's contents.
	// The progress callback, if non-nil, is invoked with the number of
	// bytes consumed after each read.
	HashFile(ctx context.Context, path string, progress func(int64)) (string, error)
}

// SHA256 is the default Hasher. It is stateless.
type SHA256 struct{}

// NewSHA256 returns a SHA-256 content hasher.
func NewSHA256() *SHA256 {
	return &SHA256{}
}

// HashFile computes the SHA-256 digest of the file at path.
// Read errors propagate to the caller; there are no retries.
func (h *SHA256) HashFile(ctx context.Context, path string, progress func(int64)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return Sum(ctx, f, progress)
}

// Sum computes the SHA-256 digest of a byte stream.
func Sum(ctx context.Context, r io.Reader, progress func(int64)) (string, error) {
	hasher := sha256.New()
	buf := make([]byte, bufSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := r.Read(buf)
		if n > 0 {
			// Hash.Write never returns an error.
			_, _ = hasher.Write(buf[:n])
			if progress != nil {
				progress(int64(n))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("reading stream: %w", err)
		}
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
