// Package apperr holds the sentinel errors shared across the content pipeline.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrStoreUnavailable  = errors.New("content store unavailable")
	ErrMalformedMetadata = errors.New("malformed front matter")
	ErrDuplicateID       = errors.New("duplicate content id")
)
