package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateID         = errors.New("duplicate job id")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrNotReady            = errors.New("transcription is not yet complete")
	ErrInvalidUpload       = errors.New("invalid upload")
)
