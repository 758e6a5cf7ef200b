package credential

import "github.com/MrEthical07/storefront/session"

// Storage is the contract every store here implements.
type Storage = session.CredentialStorage

var (
	_ Storage = (*Memory)(nil)
	_ Storage = (*File)(nil)
	_ Storage = (*Redis)(nil)
)
