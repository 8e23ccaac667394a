package credentials

import "errors"

// Resolution failures. Stores and transforms wrap these so callers can use errors.Is.
var (
	// ErrNotFound indicates the credential id did not resolve.
	ErrNotFound = errors.New("credential not found")

	// ErrAccessDenied indicates the consumer may not use the credential.
	ErrAccessDenied = errors.New("credential access denied")

	// ErrCapabilityMismatch indicates the credential kind cannot serve the binding.
	ErrCapabilityMismatch = errors.New("credential capability mismatch")

	// ErrIncompleteCredential indicates a field required by the transform is absent.
	ErrIncompleteCredential = errors.New("incomplete credential")

	// ErrTransformFailure indicates a transform could not encode its output.
	ErrTransformFailure = errors.New("credential transform failed")
)
