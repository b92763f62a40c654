package handlers

import "errors"

var (
	errNilID    = errors.New("id must not be nil")
	errBadQuery = errors.New("must be a non-negative integer")
)
