package domain

import "errors"

// Failure kinds of an organize run. Stages wrap one of these with %w so
// callers can classify with errors.Is.
var (
	ErrPrecondition          = errors.New("precondition failed")
	ErrExtraction            = errors.New("extraction failed")
	ErrClassificationService = errors.New("classification service failed")
	ErrNoStructuredBlock     = errors.New("no structured block found")
	ErrMalformedResult       = errors.New("malformed result")
)

// Account errors
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
