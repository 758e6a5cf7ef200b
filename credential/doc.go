// Package credential provides durable client-side storage for the session credential.
//
// All implementations satisfy session.CredentialStorage: Get reports (value, true, nil)
// when present, ("", false, nil) when absent, and an error only when the backing
// store could not be read.
package credential
