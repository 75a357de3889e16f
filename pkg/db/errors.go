package db

import "errors"

var (
	// ErrDuplicateEmail is returned when a volunteer insert or update collides on email
	ErrDuplicateEmail = errors.New("a volunteer with this email already exists")

	// ErrDuplicateServiceName is returned when a service insert or update collides on name
	ErrDuplicateServiceName = errors.New("a service with this name already exists")

	// ErrMalformedDateRange is returned when a service start/end date cannot be parsed
	ErrMalformedDateRange = errors.New("malformed service date range")

	// ErrCorruptMapping is returned when a legacy assigned_dates payload cannot be decoded
	ErrCorruptMapping = errors.New("corrupt assigned_dates payload")
)
