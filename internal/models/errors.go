package models

import "errors"

// Error kinds shared by the engine packages. Callers test them with
// errors.Is; concrete errors wrap one of these.
var (
	// ErrNotFound: the user or group is absent from the expected collection.
	ErrNotFound = errors.New("not found")
	// ErrGatewayUnavailable: a single messaging-platform call failed.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrConflict: the target was changed by a concurrent operation.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable: persistence failed; nothing was written.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidArgument: the request itself is malformed.
	ErrInvalidArgument = errors.New("invalid argument")
)
