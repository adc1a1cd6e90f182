package domain

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownState      = errors.New("unknown state")
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrOptimisticLock is returned by repositories when the stored aggregate
	// changed after it was loaded.
	ErrOptimisticLock = errors.New("optimistic lock conflict")
)
