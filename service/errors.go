package service

import "errors"

var (
	// ErrInvalidInput marks a missing or empty upload payload; no job is
	// created and nothing is written anywhere.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTranscodeFailed means no variant survived the encode fan-out.
	ErrTranscodeFailed = errors.New("transcode failed for all variants")

	// ErrPublishFailed wraps a blob store write failure after a
	// successful transcode. The staging directory is kept so publish can
	// be retried without re-encoding.
	ErrPublishFailed = errors.New("publish to content store failed")

	ErrJobNotFound = errors.New("job not found")
)
