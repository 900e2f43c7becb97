package gateways

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestVerifyChecksum tests SHA256 checksum verification
func TestVerifyChecksum(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "bom.json")

	if err := os.WriteFile(testFile, []byte(`{"bomFormat":"CycloneDX"}`), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	verifier := NewChecksumVerifier()
	ctx := context.Background()

	actualSum, err := verifier.CalculateChecksum(ctx, testFile)
	if err != nil {
		t.Fatalf("CalculateChecksum() error = %v", err)
	}
	if len(actualSum) != 64 {
		t.Errorf("CalculateChecksum() returned checksum length = %d, want 64 (SHA256 hex)", len(actualSum))
	}

	tests := []struct {
		name     string
		expected string
		wantErr  string
	}{
		{name: "exact", expected: actualSum},
		{name: "upper case with prefix", expected: "sha256:" + strings.ToUpper(actualSum)},
		{name: "mismatch", expected: strings.Repeat("0", 64), wantErr: "checksum mismatch"},
		{name: "empty", expected: "  ", wantErr: "no expected checksum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.VerifyChecksum(ctx, testFile, tt.expected)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("VerifyChecksum() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("VerifyChecksum() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

// TestCalculateChecksum tests a known digest and error paths
func TestCalculateChecksum(t *testing.T) {
	tmpDir := t.TempDir()
	emptyFile := filepath.Join(tmpDir, "empty.json")
	if err := os.WriteFile(emptyFile, nil, 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	verifier := NewChecksumVerifier()

	sum, err := verifier.CalculateChecksum(context.Background(), emptyFile)
	if err != nil {
		t.Fatalf("CalculateChecksum() error = %v", err)
	}
	if want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"; sum != want {
		t.Errorf("CalculateChecksum() = %s, want %s", sum, want)
	}

	if _, err := verifier.CalculateChecksum(context.Background(), filepath.Join(tmpDir, "missing")); err == nil {
		t.Error("CalculateChecksum() expected error for missing file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := verifier.CalculateChecksum(ctx, emptyFile); err == nil {
		t.Error("CalculateChecksum() expected error for canceled context")
	}
}
