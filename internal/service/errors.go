package service

import "errors"

var (
	// ErrInvalidInput marks a request the caller must fix before retrying.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateGroup is returned when a creator already has a group with the same name.
	ErrDuplicateGroup = errors.New("duplicate group name")

	// ErrDuplicateBill is returned when a group already has a bill with the same description.
	ErrDuplicateBill = errors.New("duplicate bill description")
)
