package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/sbomrisk/internal/domain-adapters/gateways"
	domaingateways "github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
)

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <sbom-file>",
		Short: "Verify the detached OpenPGP signature of an SBOM",
		Example: `  sbomrisk verify --key release.asc bom.cdx.json
  sbomrisk verify --key https://example.com/KEYS --signature bom.sig --checksum sha256:9f86... bom.cdx.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd.Context(), args[0])
		},
	}

	f := cmd.Flags()
	f.String("key", "", "public key file or URL (required)")
	f.String("signature", "", "detached signature (default is <file>.asc)")
	f.String("checksum", "", "expected SHA-256 of the file, optionally prefixed with sha256:")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (a *app) runVerify(ctx context.Context, filePath string) error {
	verifier := gateways.NewSignatureGateway(a.logger)
	if err := importKey(ctx, verifier, a.v.GetString("key")); err != nil {
		return err
	}

	sigPath := a.v.GetString("signature")
	if sigPath == "" {
		sigPath = filePath + ".asc"
	}

	result, err := verifier.VerifyGPGSignatureFromFile(filePath, sigPath)
	if err != nil {
		return err
	}

	if expected := a.v.GetString("checksum"); expected != "" {
		if err := verifier.VerifyChecksum(ctx, filePath, expected); err != nil {
			return err
		}
	}

	signer := result.Signer
	if signer == "" {
		signer = "unknown identity"
	}
	fmt.Fprintf(a.stdout, "✓ Good signature from %s\n", signer)
	fmt.Fprintf(a.stdout, "  Key ID:      %s\n", result.KeyID)
	fmt.Fprintf(a.stdout, "  Fingerprint: %s\n", result.Fingerprint)
	if !result.SignedAt.IsZero() {
		fmt.Fprintf(a.stdout, "  Signed at:   %s\n", result.SignedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(a.stdout, "  SHA-256:     %s\n", result.Digest.SHA256)
	fmt.Fprintf(a.stdout, "  Keyring:     %d key(s)\n", result.KeysLoaded)
	return nil
}

// importKey loads a public key from a file or an http(s) URL
func importKey(ctx context.Context, verifier domaingateways.SignatureGateway, key string) error {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return verifier.ImportGPGKeysFromURL(ctx, key)
	}
	return verifier.ImportGPGKeyFromFile(key)
}
