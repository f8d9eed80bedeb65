package core

import "errors"

var (
	// ErrMalformedExtraction is returned by Normalize when the extraction result
	// is not a mapping at all.
	ErrMalformedExtraction = errors.New("extraction result is not an object")

	// ErrDuplicateInvoice is returned when the owner already has an invoice with
	// the same number.
	ErrDuplicateInvoice = errors.New("invoice number already exists")

	// ErrDuplicateUser is returned when registering a username that is taken.
	ErrDuplicateUser = errors.New("username already registered")

	// ErrNotFound is returned for lookups that match nothing for the owner.
	ErrNotFound = errors.New("not found")

	// ErrClientUnresolved is returned when an invoice's client could not be
	// looked up or created. No invoice is written in that case.
	ErrClientUnresolved = errors.New("client could not be resolved")

	// ErrStore wraps any other storage failure (connectivity, constraint, scan).
	ErrStore = errors.New("storage failure")
)
