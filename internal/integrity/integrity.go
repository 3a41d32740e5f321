// SPDX-License-Identifier: MPL-2.0

// Package integrity computes and verifies SHA-256 digests of build artifacts.
//
// The digest is computed by the unprivileged install phase and recomputed by
// the elevated phase; a mismatch means the artifact was replaced between the
// build and the privileged install.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrIntegrityViolation indicates the artifact's digest differs from the
	// digest recorded before elevation.
	ErrIntegrityViolation = errors.New("integrity violation")

	// ErrMalformedChecksum indicates a checksum that is not a 64-character hex string.
	ErrMalformedChecksum = errors.New("malformed checksum")
)

// IntegrityError provides details about a checksum verification failure.
// It wraps ErrIntegrityViolation so callers can use errors.Is for classification.
type IntegrityError struct {
	Path     string
	Expected string
	Got      string
}

// Error returns a human-readable description of the checksum mismatch,
// showing both expected and actual hash values.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("artifact %s changed after it was built\nExpected: %s\nGot:      %s", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrIntegrityViolation so callers can use errors.Is.
func (e *IntegrityError) Unwrap() error { return ErrIntegrityViolation }

// ComputeFileHash computes and returns the lowercase hex-encoded SHA256 digest
// of the file at path. It streams the file through the hash function to avoid
// loading the entire file into memory.
func ComputeFileHash(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		// Read-only file handle; close errors are exotic (NFS edge cases).
		_ = f.Close()
	}()

	return Compute(f)
}

// Compute returns the lowercase hex-encoded SHA256 digest of everything read from r.
func Compute(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hashing artifact: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFile recomputes the digest of the file at path and compares it with
// expected. Returns nil on a match (case-insensitive), or an *IntegrityError.
func VerifyFile(path, expected string) error {
	if _, err := Decode(expected); err != nil {
		return err
	}

	got, err := ComputeFileHash(path)
	if err != nil {
		return err
	}

	if !strings.EqualFold(got, expected) {
		return &IntegrityError{
			Path:     path,
			Expected: strings.ToLower(expected),
			Got:      got,
		}
	}

	return nil
}

// Decode converts a hex checksum into raw digest bytes.
func Decode(checksum string) ([]byte, error) {
	if !isValidHexHash(checksum) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedChecksum, checksum)
	}
	return hex.DecodeString(checksum)
}

// isValidHexHash checks if s is a valid 64-character hex-encoded SHA256 hash.
func isValidHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
