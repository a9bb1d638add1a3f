package archive

import (
	"encoding/hex"
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3 hash of the file at path. Two runs over the
// same input entries, in any order, publish archives with equal digests.
func Digest(fs billy.Filesystem, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
