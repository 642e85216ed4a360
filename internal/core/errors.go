package core

import "errors"

// Startup errors. Either of these means the process should not begin
// serving; the caller is expected to treat them as fatal.
var (
	ErrModelNotFound  = errors.New("model artifact not found")
	ErrLabelsNotFound = errors.New("labels file not found")
)

// Per-request errors. These are reported to the caller and never crash
// the serving process; the classifier remains usable afterwards.
var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrShapeMismatch = errors.New("unexpected tensor shape")
	ErrInference     = errors.New("inference failed")
)
