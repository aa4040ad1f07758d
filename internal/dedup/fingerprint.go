// Package dedup computes content fingerprints for uploaded images and
// decides whether an extraction result should be persisted, rejected as a
// duplicate, or returned without persisting.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"

	"notascan/internal/domain"
)

// Fingerprint returns the 32-character hex MD5 digest of the image content.
//
// It accepts raw bytes or a seekable stream. A stream is rewound to its start
// before hashing, so calling Fingerprint twice on the same stream object
// yields the same digest both times. Any other input type fails with
// domain.ErrInvalidInput.
func Fingerprint(input any) (string, error) {
	h := md5.New()

	switch v := input.(type) {
	case []byte:
		h.Write(v)
	case io.ReadSeeker:
		if _, err := v.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewinding stream: %w", err)
		}
		if _, err := io.Copy(h, v); err != nil {
			return "", fmt.Errorf("reading stream: %w", err)
		}
	default:
		return "", fmt.Errorf("%w: expected []byte or io.ReadSeeker, got %T", domain.ErrInvalidInput, input)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
