package draft

import "errors"

var (
	// ErrNotFound indicates no invoice row has the requested id.
	ErrNotFound = errors.New("invoice not found")

	// ErrNotHistory indicates an operation on history was given the draft.
	ErrNotHistory = errors.New("invoice is the current draft")

	// ErrLastLineItem indicates an attempt to remove the only line item.
	ErrLastLineItem = errors.New("an invoice keeps at least one line item")

	// ErrLineItemIndex indicates a line item index out of range.
	ErrLineItemIndex = errors.New("line item index out of range")
)
