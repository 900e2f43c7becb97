package entities

import "time"

// SignatureVerification is the outcome of verifying a detached OpenPGP
// signature over an SBOM file
type SignatureVerification struct {
	File        string
	Digest      DigestSet
	Signer      string // primary identity of the signing key, if any
	KeyID       string
	Fingerprint string
	SignedAt    time.Time
	KeysLoaded  int // size of the keyring the signature was checked against
}

// DigestSet contains cryptographic digests of the verified file
type DigestSet struct {
	SHA256 string
}
