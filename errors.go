package storefront

import "errors"

var (
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrMissingAuthenticator is returned when no Authenticator was supplied.
	ErrMissingAuthenticator = errors.New("authenticator required")
	// ErrMissingCredentialStorage is returned when no credential storage was supplied.
	ErrMissingCredentialStorage = errors.New("credential storage required")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrClosed is returned by operations on a closed Client.
	ErrClosed = errors.New("client closed")
)
