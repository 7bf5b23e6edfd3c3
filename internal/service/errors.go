package service

import "errors"

var (
	// ErrInvalidRequest indicates malformed caller input such as an empty
	// query, an unknown format or an invalid class name.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidConfig indicates a pipeline setting that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnverifiedFilters indicates a query refused under PolicyAbort.
	ErrUnverifiedFilters = errors.New("query has unverified filters")
)
