package domain

import "errors"

var (
	// ErrGeneration: the generation backend failed or returned unusable content.
	ErrGeneration = errors.New("document generation failed")
	// ErrRender: a PDF could not be produced.
	ErrRender = errors.New("pdf rendering failed")
	// ErrParagraphEncoding: one paragraph cannot be placed by the renderer. Never fatal.
	ErrParagraphEncoding = errors.New("paragraph encoding failed")
	// ErrMissingArtifactReference: checkout requested without a filename.
	ErrMissingArtifactReference = errors.New("missing document filename")
	// ErrCheckout: the payment backend refused or failed to create a session.
	ErrCheckout = errors.New("checkout session failed")

	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrInvalidArtifactName = errors.New("invalid artifact name")
	ErrStorage             = errors.New("artifact storage failed")
	ErrTokenTaken          = errors.New("artifact token already reserved")
	ErrTokenExhausted      = errors.New("could not reserve a unique artifact token")
	ErrMalformedRequest    = errors.New("malformed request body")
)
