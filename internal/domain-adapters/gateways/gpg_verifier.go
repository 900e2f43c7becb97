package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/sbomrisk/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external GPG adapter for use by the signature gateway
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{
		verifier: gpg.NewVerifier(),
	}
}

// ImportGPGKeysFromURL imports all GPG keys from a KEYS file URL
func (g *gpgVerifier) ImportGPGKeysFromURL(ctx context.Context, keysURL string) error {
	if err := g.verifier.ImportKeysFromURL(ctx, keysURL); err != nil {
		return fmt.Errorf("failed to import GPG keys from URL: %w", err)
	}
	return nil
}

// ImportGPGKeyFromFile imports a GPG key from a local file
func (g *gpgVerifier) ImportGPGKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	return nil
}

// VerifyGPGSignatureFromFile verifies a detached GPG signature from a local file
func (g *gpgVerifier) VerifyGPGSignatureFromFile(filePath, sigPath string) (*gpg.Signature, error) {
	sig, err := g.verifier.VerifyFile(filePath, sigPath)
	if err != nil {
		return nil, fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return sig, nil
}

// GetKeyringSize returns the number of keys loaded
func (g *gpgVerifier) GetKeyringSize() int {
	return g.verifier.GetKeyringSize()
}
