package internalerr

import "errors"

// Sentinel errors shared across pipeline stages
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrStoreUnavailable = errors.New("artifact store unavailable")
	ErrArtifactMismatch = errors.New("model artifacts were not produced by the same run")
)
