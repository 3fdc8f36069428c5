package errors

import "fmt"

var (
	// Client-correctable input problem. Reported immediately, no retry implied.
	ErrInvalidContent = fmt.Errorf("invalid message content")

	// Authorization failed against current durable membership.
	// Only the request is rejected; the connection stays up.
	ErrForbidden = fmt.Errorf("forbidden")

	// The room's backing channel or guild does not exist.
	ErrNotFound = fmt.Errorf("not found")

	// Durable write failed. Retryable by the caller; the core never retries.
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")

	// Registry misuse. Should not happen in correct operation; the transport
	// layer logs and ignores these instead of tearing the whole service down.
	ErrUnknownConnection   = fmt.Errorf("unknown connection")
	ErrDuplicateConnection = fmt.Errorf("duplicate connection")

	ErrWorkerPanic = fmt.Errorf("worker panic")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
