package gateways

import (
	"context"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
)

// signatureGateway implements the SignatureGateway interface by composing
// the GPG and checksum verifiers
type signatureGateway struct {
	gpgVerifier      *gpgVerifier
	checksumVerifier *checksumVerifier
	logger           interfaces.Logger
}

// NewSignatureGateway creates a new signature gateway with all dependencies
func NewSignatureGateway(logger interfaces.Logger) gateways.SignatureGateway {
	return NewSignatureGatewayWithDeps(NewGPGVerifier(), NewChecksumVerifier(), logger)
}

// NewSignatureGatewayWithDeps creates a signature gateway with custom dependencies
func NewSignatureGatewayWithDeps(gpg *gpgVerifier, checksum *checksumVerifier, logger interfaces.Logger) gateways.SignatureGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &signatureGateway{
		gpgVerifier:      gpg,
		checksumVerifier: checksum,
		logger:           logger,
	}
}

// ImportGPGKeyFromFile imports a GPG key from a local file
func (s *signatureGateway) ImportGPGKeyFromFile(keyPath string) error {
	s.logger.Debug("importing GPG key", interfaces.F("path", keyPath))
	return s.gpgVerifier.ImportGPGKeyFromFile(keyPath)
}

// ImportGPGKeysFromURL imports GPG keys from a URL
func (s *signatureGateway) ImportGPGKeysFromURL(ctx context.Context, keysURL string) error {
	s.logger.Debug("importing GPG keys from URL", interfaces.F("url", keysURL))
	return s.gpgVerifier.ImportGPGKeysFromURL(ctx, keysURL)
}

// VerifyGPGSignatureFromFile verifies a detached signature and records the
// file digest alongside the signer
func (s *signatureGateway) VerifyGPGSignatureFromFile(filePath, sigPath string) (*entities.SignatureVerification, error) {
	sig, err := s.gpgVerifier.VerifyGPGSignatureFromFile(filePath, sigPath)
	if err != nil {
		return nil, err
	}

	digest, err := s.checksumVerifier.CalculateChecksum(context.Background(), filePath)
	if err != nil {
		return nil, err
	}

	s.logger.Info("signature verified",
		interfaces.F("file", filePath),
		interfaces.F("signer", sig.Identity),
		interfaces.F("key_id", sig.KeyID),
		interfaces.F("keys_loaded", s.gpgVerifier.GetKeyringSize()),
	)

	return &entities.SignatureVerification{
		File:        filePath,
		Digest:      entities.DigestSet{SHA256: digest},
		Signer:      sig.Identity,
		KeyID:       sig.KeyID,
		Fingerprint: sig.Fingerprint,
		SignedAt:    sig.CreatedAt,
		KeysLoaded:  s.gpgVerifier.GetKeyringSize(),
	}, nil
}

// VerifyChecksum verifies a file's SHA-256 checksum
func (s *signatureGateway) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	return s.checksumVerifier.VerifyChecksum(ctx, filePath, expectedSum)
}
