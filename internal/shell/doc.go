// Package shell is the thin JSON view layer over a storefront Client: session
// endpoints, cart endpoints, product lookup and the guarded pages of the route
// table, served by a chi router.
package shell
