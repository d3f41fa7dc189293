package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest is a hex-encoded SHA-256 content fingerprint.
type Digest string

// Sum returns the digest of the provided content. The digest of empty
// content is well-defined and stable.
func Sum(content []byte) Digest {
	sum := sha256.Sum256(content)
	return Digest(hex.EncodeToString(sum[:]))
}

// SumFile returns the digest of a file's contents, reading in chunks so
// large staged units do not need to fit in memory.
func SumFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return Digest(hex.EncodeToString(hasher.Sum(nil))), nil
}

// Equal reports whether two digests match.
func Equal(a, b Digest) bool {
	return a != "" && a == b
}

// Changed reports whether content at path differs from a previously stored
// digest. A missing stored digest or an unreadable file both count as
// changed so the unit is picked up on the next pass.
func Changed(path string, stored Digest) bool {
	if stored == "" {
		return true
	}
	current, err := SumFile(path)
	if err != nil {
		return true
	}
	return !Equal(current, stored)
}
