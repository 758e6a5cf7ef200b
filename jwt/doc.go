// Package jwt mints and checks storefront credentials that happen to be JWTs.
//
// [Manager] signs and verifies credentials for the in-process fake Auth API.
// [Inspect] reads the expiry of a credential without verifying its signature, so
// the Session Store can drop an already-expired credential without a round trip.
// Inspect never grants trust; the Auth API remains the only verifier.
package jwt
