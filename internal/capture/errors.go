package capture

import "errors"

var (
	// ErrPermissionDenied is what a Device returns when the user refuses access.
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNotReady         = errors.New("camera stream not ready")
	ErrNoCapture        = errors.New("no captured image")
	ErrEmptySignature   = errors.New("signature is empty")
	ErrCancelled        = errors.New("capture cancelled")
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrImageTooLarge    = errors.New("image dimensions exceed limit")
)
