package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// checksumVerifier computes and compares SHA-256 digests of SBOM files
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum compares the file digest with expectedSum. The expected
// value may carry a "sha256:" prefix and is compared case-insensitively.
func (v *checksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	expected := strings.ToLower(strings.TrimSpace(expectedSum))
	expected = strings.TrimPrefix(expected, "sha256:")
	if expected == "" {
		return fmt.Errorf("no expected checksum provided")
	}

	actual, err := v.CalculateChecksum(ctx, filePath)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

// CalculateChecksum returns the hex SHA-256 digest of a file
func (v *checksumVerifier) CalculateChecksum(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	//nolint:gosec // G304: File path is user-provided for checksum calculation
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
