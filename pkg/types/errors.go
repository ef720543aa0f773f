package types

import "errors"

// Domain errors for type validation
var (
	ErrMissingPath  = errors.New("path is required")
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrEmptyQuery   = errors.New("query cannot be empty")
)
