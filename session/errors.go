package session

import (
	"errors"
	"strings"
)

var (
	// ErrSuperseded marks a response that arrived after a newer Login or Logout.
	ErrSuperseded = errors.New("request superseded")
	// ErrInvalidInput wraps validation failures detected before any network call.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyCredential is returned when the remote login succeeded without a token.
	ErrEmptyCredential = errors.New("empty credential in login response")
	// ErrCredentialPersist wraps durable storage failures while saving a credential.
	ErrCredentialPersist = errors.New("credential could not be saved")
	// ErrCredentialExpired is reported when a stored JWT credential is past its expiry.
	ErrCredentialExpired = errors.New("stored credential expired")
)

// userMessenger is implemented by errors that carry a message meant for the end user,
// such as the Auth API error payload.
type userMessenger interface {
	UserMessage() string
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string       { return "invalid input: " + e.msg }
func (e *inputError) Unwrap() error       { return ErrInvalidInput }
func (e *inputError) UserMessage() string { return e.msg }

func messageFor(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var um userMessenger
	if errors.As(err, &um) {
		if msg := strings.TrimSpace(um.UserMessage()); msg != "" {
			return msg
		}
	}
	switch {
	case errors.Is(err, ErrSuperseded):
		return ErrSuperseded.Error()
	case errors.Is(err, ErrCredentialPersist):
		return ErrCredentialPersist.Error()
	}
	return fallback
}

func failure(err error, fallback string) Result {
	return Result{Success: false, Message: messageFor(err, fallback), Err: err}
}
