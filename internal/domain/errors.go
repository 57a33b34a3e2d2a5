package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller is not allowed to perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when the request is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPreconditionFailed is returned when a state transition finds the entity
	// in a different state than the action expects (e.g. accepting an invite the
	// user no longer holds). The transaction is rolled back and no sets change.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrAlreadyFriends is returned when sending a friend request to an existing friend.
	ErrAlreadyFriends = errors.New("already friends")

	// ErrRequestPending is returned when a friend request between the pair already
	// exists in either direction.
	ErrRequestPending = errors.New("friend request already pending")

	// ErrDuplicateUsername is returned when the requested username is taken.
	ErrDuplicateUsername = errors.New("username already in use")

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)
