package entities

import "fmt"

// UnsupportedFormatError is returned when a document matches neither the
// CycloneDX nor the SPDX structural signature
type UnsupportedFormatError struct {
	SourceFile string
}

func (e *UnsupportedFormatError) Error() string {
	if e.SourceFile == "" {
		return "unsupported SBOM format: document is neither CycloneDX nor SPDX"
	}
	return fmt.Sprintf("unsupported SBOM format in %s: document is neither CycloneDX nor SPDX", e.SourceFile)
}

// MalformedInputError is returned when a document is not valid JSON or a
// structural field has the wrong shape
type MalformedInputError struct {
	SourceFile string
	Reason     string
	Err        error
}

func (e *MalformedInputError) Error() string {
	msg := "malformed SBOM"
	if e.SourceFile != "" {
		msg += " " + e.SourceFile
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}
